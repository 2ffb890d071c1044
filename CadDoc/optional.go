package CadDoc

import "encoding/json"

// Optional 表示DXF中可能缺省的组码值，区分"未写入"和"写入了零值"
type Optional[T any] struct {
	val   T
	isSet bool
}

// Some 创建一个已赋值的 Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{val: v, isSet: true}
}

// None 创建一个未赋值的 Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get 返回值以及是否赋值
func (o Optional[T]) Get() (T, bool) {
	return o.val, o.isSet
}

func (o Optional[T]) IsSet() bool {
	return o.isSet
}

// OrElse 未赋值时返回 dflt
func (o Optional[T]) OrElse(dflt T) T {
	if !o.isSet {
		return dflt
	}
	return o.val
}

// Set 赋值
func (o *Optional[T]) Set(v T) {
	o.val = v
	o.isSet = true
}

// MapOptional 对已赋值的值应用 fn，未赋值时原样返回
func MapOptional[T any](o Optional[T], fn func(T) T) Optional[T] {
	if !o.isSet {
		return o
	}
	return Some(fn(o.val))
}

// MarshalJSON 未赋值时输出 null
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.isSet {
		return []byte("null"), nil
	}
	return json.Marshal(o.val)
}
