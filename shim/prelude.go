package shim

// Names of the fixed symbols shared between generated C and the host.
const (
	// EntrySymbol is the exported wrapper in every call-out unit.
	EntrySymbol = "ffi_entry"
	// TrampolineSymbol is the exported native entry in every call-in unit.
	TrampolineSymbol = "ffi_trampoline"

	// Host-resident 64-bit conversion helpers, linked into every shim unit.
	BoxI64Symbol   = "ffi_box_i64"
	BoxU64Symbol   = "ffi_box_u64"
	UnboxI64Symbol = "ffi_unbox_i64"
	UnboxU64Symbol = "ffi_unbox_u64"

	// Callback dispatch externs. Arity-specialized variants avoid packing an
	// argument array for the common low-arity case; the generic and
	// threadsafe forms take a packed buffer.
	CallbackSymbolGeneric    = "FFI_Callback_call"
	CallbackSymbolThreadsafe = "FFI_Callback_threadsafe_call"

	// MaxSpecializedArity is the highest arity with a dedicated dispatch
	// symbol; above it the generic form is used.
	MaxSpecializedArity = 7
)

// floatGuard gates the floating-point conversion helpers; it is defined at
// the top of units whose signature touches floats.
const floatGuard = "FFI_USES_FLOAT"

// prelude is the fixed header prepended to every generated unit. It is
// self-contained: shims compile without any include path. The value layout
// must match abi.Value bit for bit; both sides reinterpret the same words.
const prelude = `typedef signed char int8_t;
typedef unsigned char uint8_t;
typedef signed short int16_t;
typedef unsigned short uint16_t;
typedef signed int int32_t;
typedef unsigned int uint32_t;
typedef signed long long int64_t;
typedef unsigned long long uint64_t;
typedef _Bool bool;
#define true 1
#define false 0

typedef union ffi_value {
	int64_t bits;
	double fp;
	void* ptr;
} ffi_value;

#define FFI_NUMBER_TAG 0xfffe000000000000LL
#define FFI_DOUBLE_OFFSET 0x0002000000000000LL
#define FFI_NULL 0x2LL
#define FFI_FALSE 0x6LL
#define FFI_TRUE 0x7LL
#define FFI_UNDEFINED 0xaLL
#define FFI_MAX_INT32 2147483647LL
#define FFI_MIN_INT32 (-2147483647LL - 1LL)
#define FFI_MAX_SAFE_INT 9007199254740991LL

extern uint64_t ffi_box_i64(int64_t n);
extern uint64_t ffi_box_u64(uint64_t n);
extern int64_t ffi_unbox_i64(uint64_t word);
extern uint64_t ffi_unbox_u64(uint64_t word);

static ffi_value ffi_wrap(uint64_t word) {
	ffi_value v;
	v.bits = (int64_t)word;
	return v;
}

static int ffi_is_i32(ffi_value v) {
	return (v.bits & FFI_NUMBER_TAG) == FFI_NUMBER_TAG;
}

static int ffi_is_double(ffi_value v) {
	return (v.bits & FFI_NUMBER_TAG) != 0 && !ffi_is_i32(v);
}

static int32_t ffi_to_i32(ffi_value v) {
	return (int32_t)v.bits;
}

static ffi_value ffi_from_i32(int32_t n) {
	ffi_value v;
	v.bits = FFI_NUMBER_TAG | (uint64_t)(uint32_t)n;
	return v;
}

static double ffi_number_of(ffi_value v) {
	if (ffi_is_i32(v)) {
		return (double)ffi_to_i32(v);
	}
	v.bits -= FFI_DOUBLE_OFFSET;
	return v.fp;
}

static ffi_value ffi_double_value(double d) {
	ffi_value v;
	v.fp = d;
	v.bits += FFI_DOUBLE_OFFSET;
	return v;
}

static ffi_value ffi_from_u32(uint32_t n) {
	if (n <= (uint32_t)FFI_MAX_INT32) {
		return ffi_from_i32((int32_t)n);
	}
	return ffi_double_value((double)n);
}

static uint32_t ffi_to_u32(ffi_value v) {
	if (ffi_is_i32(v)) {
		return (uint32_t)(int32_t)v.bits;
	}
	if (ffi_is_double(v)) {
		return (uint32_t)ffi_number_of(v);
	}
	return 0;
}

static bool ffi_to_bool(ffi_value v) {
	return v.bits == FFI_TRUE;
}

static ffi_value ffi_from_bool(bool b) {
	ffi_value v;
	v.bits = b ? FFI_TRUE : FFI_FALSE;
	return v;
}

static void* ffi_to_ptr(ffi_value v) {
	if (v.bits == FFI_NULL || v.bits == FFI_UNDEFINED) {
		return (void*)0;
	}
	if (ffi_is_i32(v)) {
		return (void*)(int64_t)ffi_to_i32(v);
	}
	return (void*)(uint64_t)ffi_number_of(v);
}

static ffi_value ffi_from_ptr(void* p) {
	ffi_value v;
	if (!p) {
		v.bits = FFI_NULL;
		return v;
	}
	return ffi_double_value((double)(uint64_t)p);
}

static int64_t ffi_to_i64(ffi_value v) {
	if (ffi_is_i32(v)) {
		return (int64_t)ffi_to_i32(v);
	}
	if (ffi_is_double(v)) {
		return (int64_t)ffi_number_of(v);
	}
	return ffi_unbox_i64((uint64_t)v.bits);
}

static ffi_value ffi_from_i64(int64_t n) {
	if (n >= FFI_MIN_INT32 && n <= FFI_MAX_INT32) {
		return ffi_from_i32((int32_t)n);
	}
	if (n >= -FFI_MAX_SAFE_INT && n <= FFI_MAX_SAFE_INT) {
		return ffi_double_value((double)n);
	}
	return ffi_wrap(ffi_box_i64(n));
}

static uint64_t ffi_to_u64(ffi_value v) {
	if (ffi_is_i32(v)) {
		return (uint64_t)(int64_t)ffi_to_i32(v);
	}
	if (ffi_is_double(v)) {
		return (uint64_t)ffi_number_of(v);
	}
	return ffi_unbox_u64((uint64_t)v.bits);
}

static ffi_value ffi_from_u64(uint64_t n) {
	if (n <= (uint64_t)FFI_MAX_INT32) {
		return ffi_from_i32((int32_t)n);
	}
	if (n <= (uint64_t)FFI_MAX_SAFE_INT) {
		return ffi_double_value((double)n);
	}
	return ffi_wrap(ffi_box_u64(n));
}

#ifdef FFI_USES_FLOAT
static double ffi_to_f64(ffi_value v) {
	return ffi_number_of(v);
}

static float ffi_to_f32(ffi_value v) {
	return (float)ffi_number_of(v);
}

static ffi_value ffi_from_f64(double d) {
	return ffi_double_value(d);
}

static ffi_value ffi_from_f32(float f) {
	return ffi_double_value((double)f);
}
#endif
`
