package schema

// Prelude declares the built-in classes and functions:
//
//	Unit, String, Int, Bool
//	true, false: Bool
//	List<x> { get(Int) -> x }
//	Map<key, val>
//	echo<x>(x) -> x
//	listOf<x>(x) -> List<x>
func Prelude(b *Builder) {
	b.Class("Unit")
	b.Class("String")
	intType := b.Class("Int").Type()
	boolType := b.Class("Bool").Type()
	b.Value("true", boolType)
	b.Value("false", boolType)

	list := b.Class("List", "x")
	list.Method("get", func(f *FuncBuilder) {
		f.Param(intType).Returns(f.FindTypeVar("x"))
	})

	b.Class("Map", "key", "val")

	b.Function("echo", func(f *FuncBuilder) {
		x := f.TypeVar("x")
		f.Param(x).Returns(x)
	})

	b.Function("listOf", func(f *FuncBuilder) {
		x := f.TypeVar("x")
		f.Param(x).Returns(f.Instance(list.Type(), x))
	})
}
