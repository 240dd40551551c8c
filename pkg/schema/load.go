package schema

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vito/unifier/pkg/types"
)

// File is the document shape shared by TOML and YAML schema files.
//
//	[[classes]]
//	name = "List"
//	params = ["x"]
//
//	  [[classes.methods]]
//	  name = "get"
//	  params = ["Int"]
//	  returns = "x"
//
//	[[functions]]
//	name = "listOf"
//	type_params = ["x"]
//	params = ["x"]
//	returns = "List<x>"
type File struct {
	Classes   []ClassDecl `toml:"classes" yaml:"classes"`
	Functions []FuncDecl  `toml:"functions" yaml:"functions"`
	Values    []ValueDecl `toml:"values" yaml:"values"`
}

type ClassDecl struct {
	Name    string      `toml:"name" yaml:"name"`
	Params  []string    `toml:"params" yaml:"params"`
	Methods []FuncDecl  `toml:"methods" yaml:"methods"`
	Fields  []ValueDecl `toml:"fields" yaml:"fields"`
}

type FuncDecl struct {
	Name       string   `toml:"name" yaml:"name"`
	TypeParams []string `toml:"type_params" yaml:"type_params"`
	Params     []string `toml:"params" yaml:"params"`
	Returns    string   `toml:"returns" yaml:"returns"`
}

type ValueDecl struct {
	Name string `toml:"name" yaml:"name"`
	Type string `toml:"type" yaml:"type"`
}

// LoadFile reads a schema file into b, choosing the format by extension:
// .toml, .yaml/.yml or .graphqls/.graphql.
func LoadFile(b *Builder, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = LoadTOML(b, data)
	case ".yaml", ".yml":
		err = LoadYAML(b, data)
	case ".graphqls", ".graphql":
		err = LoadSDL(b, path, string(data))
	default:
		err = errors.Errorf("unsupported schema format %q", ext)
	}
	if err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

func LoadTOML(b *Builder, data []byte) error {
	var file File
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&file)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.Errorf("unknown keys: %v", undecoded)
	}
	return file.Declare(b)
}

func LoadYAML(b *Builder, data []byte) error {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return err
	}
	return file.Declare(b)
}

// Declare adds the file's declarations to b. Classes are declared before
// any member, so a file may refer to its classes in any order.
func (f *File) Declare(b *Builder) error {
	for _, c := range f.Classes {
		if c.Name == "" {
			return errors.New("class without a name")
		}
		b.Class(c.Name, c.Params...)
	}

	for _, c := range f.Classes {
		cb := b.Class(c.Name)
		for _, field := range c.Fields {
			cb.Field(field.Name, cb.Expr(field.Type))
		}
		for _, m := range c.Methods {
			cb.Method(m.Name, m.build)
		}
	}

	for _, fn := range f.Functions {
		b.Function(fn.Name, fn.build)
	}

	for _, v := range f.Values {
		t, err := ParseTypeExpr(v.Type, builderScope{b})
		if err != nil {
			return errors.Wrapf(err, "value %s", v.Name)
		}
		b.Value(v.Name, t)
	}

	return b.Err()
}

func (d FuncDecl) build(f *FuncBuilder) {
	for _, tp := range d.TypeParams {
		f.TypeVar(tp)
	}
	for _, p := range d.Params {
		f.Param(f.Expr(p))
	}
	if d.Returns != "" {
		f.Returns(f.Expr(d.Returns))
	}
}

type builderScope struct {
	b *Builder
}

func (s builderScope) LookupClass(name string) (*types.ClassType, bool) {
	return s.b.LookupClass(name)
}

func (s builderScope) LookupTypeVar(string) (types.TypeVariable, bool) {
	return types.TypeVariable{}, false
}
