package loader

import (
	"fmt"
	"reflect"
)

// Mode is how a loader decides whether a unit member is a valid plugin.
type Mode int

const (
	// ModeInstance accepts values whose type is the contract type, or that
	// embed it.
	ModeInstance Mode = iota
	// ModeProtocol accepts any value implementing the contract interface.
	ModeProtocol
	// ModeSubtype accepts type descriptors of subtypes of the base of a
	// Type contract.
	ModeSubtype
)

func (m Mode) String() string {
	switch m {
	case ModeInstance:
		return "instance"
	case ModeProtocol:
		return "protocol"
	case ModeSubtype:
		return "subtype"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// maxEmbedDepth bounds the walk through embedded fields.
const maxEmbedDepth = 16

var typeDescriptor = reflect.TypeFor[reflect.Type]()

// factoryContract is implemented by every Type[B]. A loader whose contract
// implements it hands out types instead of instances.
type factoryContract interface {
	baseType() reflect.Type
	wrap(t reflect.Type) any
}

// Type is a plugin handle for loaders that hand out constructible types. A
// Loader[Type[B]] accepts members that are type descriptors (reflect.Type) of
// B itself or of a subtype of B: a type implementing B when B is an
// interface, or a struct embedding B when B is concrete.
type Type[B any] struct {
	t reflect.Type
}

// TypeOf returns the handle for X, or an error if X is not a subtype of B.
func TypeOf[B, X any]() (Type[B], error) {
	return NewType[B](reflect.TypeFor[X]())
}

// NewType returns the handle for t, or an error if t is not a subtype of B.
func NewType[B any](t reflect.Type) (Type[B], error) {
	base := reflect.TypeFor[B]()
	if t == nil || !isSubtype(t, base) {
		return Type[B]{}, fmt.Errorf("loader: %v is not a subtype of %v", t, base)
	}
	return Type[B]{t: t}, nil
}

func (Type[B]) baseType() reflect.Type { return reflect.TypeFor[B]() }

func (Type[B]) wrap(t reflect.Type) any { return Type[B]{t: t} }

// Reflect returns the wrapped type descriptor.
func (t Type[B]) Reflect() reflect.Type {
	return t.t
}

// IsZero reports whether the handle wraps no type.
func (t Type[B]) IsZero() bool {
	return t.t == nil
}

// Name returns the name of the wrapped type.
func (t Type[B]) Name() string {
	if t.t == nil {
		return ""
	}
	return t.t.String()
}

func (t Type[B]) String() string {
	return fmt.Sprintf("Type[%v](%s)", reflect.TypeFor[B](), t.Name())
}

// New creates a zero instance of the wrapped type, seen as B. When B is a
// concrete type embedded by the wrapped type, the result is the embedded B
// inside a freshly allocated value. Embedded pointers are left nil. The zero
// handle yields the zero B.
func (t Type[B]) New() B {
	var zero B
	if t.t == nil {
		return zero
	}

	var v reflect.Value
	if t.t.Kind() == reflect.Pointer {
		v = reflect.New(t.t.Elem())
	} else {
		v = reflect.New(t.t)
	}

	view, ok := ancestorView(v, reflect.TypeFor[B](), 0)
	if !ok {
		return zero
	}
	b, _ := view.Interface().(B)
	return b
}

// contractMode derives the mode from the contract type T.
func contractMode[T any]() Mode {
	var zero T
	if _, ok := any(zero).(factoryContract); ok {
		return ModeSubtype
	}
	if reflect.TypeFor[T]().Kind() == reflect.Interface {
		return ModeProtocol
	}
	return ModeInstance
}

// newValidator builds the member check for contract T. It returns the handle
// for an accepted member.
func newValidator[T any]() func(any) (T, bool) {
	switch contractMode[T]() {
	case ModeSubtype:
		var zero T
		fc := any(zero).(factoryContract)
		base := fc.baseType()
		return func(v any) (T, bool) {
			rt, ok := v.(reflect.Type)
			if !ok || rt == nil || !isSubtype(rt, base) {
				return zero, false
			}
			return fc.wrap(rt).(T), true
		}

	case ModeProtocol:
		acceptTypes := reflect.TypeFor[T]() == typeDescriptor
		return func(v any) (T, bool) {
			if v == nil {
				var zero T
				return zero, false
			}
			if _, isType := v.(reflect.Type); isType && !acceptTypes {
				var zero T
				return zero, false
			}
			item, ok := v.(T)
			return item, ok
		}

	default:
		target := reflect.TypeFor[T]()
		return func(v any) (T, bool) {
			var zero T
			if v == nil {
				return zero, false
			}
			if item, ok := v.(T); ok {
				return item, true
			}
			if _, isType := v.(reflect.Type); isType {
				return zero, false
			}
			view, ok := ancestorView(reflect.ValueOf(v), target, 0)
			if !ok {
				return zero, false
			}
			item, ok := view.Interface().(T)
			return item, ok
		}
	}
}

// isSubtype reports whether x is base or a subtype of it.
func isSubtype(x, base reflect.Type) bool {
	if x == base {
		return true
	}
	if base.Kind() == reflect.Interface {
		if x.Implements(base) {
			return true
		}
		return x.Kind() != reflect.Pointer && reflect.PointerTo(x).Implements(base)
	}

	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if x.Kind() == reflect.Pointer {
		x = x.Elem()
	}
	return x == base || embeds(x, base, 0)
}

// embeds reports whether struct type x embeds base, directly or through
// other embedded structs.
func embeds(x, base reflect.Type, depth int) bool {
	if depth > maxEmbedDepth {
		return false
	}
	if x.Kind() == reflect.Pointer {
		x = x.Elem()
	}
	if x.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < x.NumField(); i++ {
		f := x.Field(i)
		if !f.Anonymous || !f.IsExported() {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft == base || embeds(ft, base, depth+1) {
			return true
		}
	}
	return false
}

// ancestorView finds target inside v: v itself, its address, its pointee, or
// an exported embedded field, searched depth first.
func ancestorView(v reflect.Value, target reflect.Type, depth int) (reflect.Value, bool) {
	if !v.IsValid() || depth > maxEmbedDepth {
		return reflect.Value{}, false
	}
	if v.Type().AssignableTo(target) {
		return v, true
	}
	if v.CanAddr() && reflect.PointerTo(v.Type()).AssignableTo(target) {
		return v.Addr(), true
	}

	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
		if v.Type().AssignableTo(target) {
			return v, true
		}
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || !f.IsExported() {
			continue
		}
		if view, ok := ancestorView(v.Field(i), target, depth+1); ok {
			return view, true
		}
	}
	return reflect.Value{}, false
}
