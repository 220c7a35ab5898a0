package tokio

// Kind identifies a token on the wire. It is always the first byte of a token's encoding.
type Kind uint8

const (
	// Null is the null token. Bindings substitute it for absent values.
	Null Kind = iota

	// False and True are the boolean tokens.
	False
	True

	// Int is a signed integer; zigzag varint payload.
	Int

	// Uint is an unsigned integer; varint payload.
	Uint

	// Float is a 64-bit float; 8 byte little-endian payload.
	Float

	// String is a length-prefixed string.
	String

	// Name is a length-prefixed member name. It only appears between an ObjOpen/ObjClose
	// pair, immediately before the member's value.
	Name

	// ObjOpen and ObjClose delimit an object.
	ObjOpen
	ObjClose

	// ArrOpen and ArrClose delimit an array.
	ArrOpen
	ArrClose

	kindMax
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case False:
		return "false"
	case True:
		return "true"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case String:
		return "string"
	case Name:
		return "name"
	case ObjOpen:
		return "object open"
	case ObjClose:
		return "object close"
	case ArrOpen:
		return "array open"
	case ArrClose:
		return "array close"
	default:
		return "invalid"
	}
}

// Token is one decoded token. Only the field relevant to Kind is set.
//
// Str aliases the Reader's buffer; it is valid until the next call to Feed,
// and must be copied if retained.
type Token struct {
	Kind  Kind
	Int   int64
	Uint  uint64
	Float float64
	Str   []byte
}

// Bool returns the value of a False or True token.
func (t Token) Bool() bool { return t.Kind == True }
