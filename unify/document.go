package unify

import (
	"fmt"

	"github.com/mohae/deepcopy"
)

// Clone returns a deep copy of the document. Cached documents are only
// ever handed out as clones.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return deepcopy.Copy(d).(*Document)
}

// Services returns the service definitions in source order
func (d *Document) Services() []*ServiceDefinition {
	var services []*ServiceDefinition
	for _, stmt := range d.Statements {
		if s, ok := stmt.(*ServiceDefinition); ok {
			services = append(services, s)
		}
	}
	return services
}

// Structs returns the top-level struct-like definitions in source order
func (d *Document) Structs() []*StructDefinition {
	var structs []*StructDefinition
	for _, stmt := range d.Statements {
		if s, ok := stmt.(*StructDefinition); ok {
			structs = append(structs, s)
		}
	}
	return structs
}

// Definitions returns every statement that is not a namespace or include
// declaration
func (d *Document) Definitions() []Statement {
	var defs []Statement
	for _, stmt := range d.Statements {
		switch stmt.(type) {
		case *NamespaceDeclaration, *IncludeDeclaration:
			continue
		}
		defs = append(defs, stmt)
	}
	return defs
}

// IncludeDeclarations returns the include or import statements
func (d *Document) IncludeDeclarations() []*IncludeDeclaration {
	var incs []*IncludeDeclaration
	for _, stmt := range d.Statements {
		if inc, ok := stmt.(*IncludeDeclaration); ok {
			incs = append(incs, inc)
		}
	}
	return incs
}

// DeclarationName returns the name identifier of a definition, nil for
// namespace and include declarations
func DeclarationName(stmt Statement) *Identifier {
	switch s := stmt.(type) {
	case *StructDefinition:
		return s.Name
	case *EnumDefinition:
		return s.Name
	case *TypedefDefinition:
		return s.Name
	case *ConstDefinition:
		return s.Name
	case *ServiceDefinition:
		return s.Name
	}
	return nil
}

// SyntaxType names the variant of a node, used by serializers that need a
// discriminator
func SyntaxType(node any) string {
	switch n := node.(type) {
	case *Document:
		return "Document"
	case *NamespaceDeclaration:
		return "NamespaceDeclaration"
	case *IncludeDeclaration:
		return "IncludeDeclaration"
	case *StructDefinition:
		return "StructDefinition"
	case *EnumDefinition:
		return "EnumDefinition"
	case *TypedefDefinition:
		return "TypedefDefinition"
	case *ConstDefinition:
		return "ConstDefinition"
	case *ServiceDefinition:
		return "ServiceDefinition"
	case *FunctionDefinition:
		return "FunctionDefinition"
	case *FieldDefinition:
		return "FieldDefinition"
	case *EnumMember:
		return "EnumMember"
	case *Annotation:
		return "Annotation"
	case *BaseType:
		return "BaseType"
	case *Identifier:
		return "Identifier"
	case *ListType:
		return "ListType"
	case *SetType:
		return "SetType"
	case *MapType:
		return "MapType"
	case *ConstLiteral:
		return "ConstLiteral"
	case *ConstList:
		return "ConstList"
	case *ConstMap:
		return "ConstMap"
	case *ConstProperty:
		return "ConstProperty"
	case *LineComment:
		return "LineComment"
	case *BlockComment:
		return "BlockComment"
	default:
		return fmt.Sprintf("%T", n)
	}
}
