package lang

// Language represents a language whose declarations can be introspected.
type Language string

const (
	Java Language = "java"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{Java}
}

// LanguageSpec defines the tree-sitter node types a declaration visitor needs.
type LanguageSpec struct {
	Language       Language
	FileExtensions []string
	// SourceSuffix is the trailing marker source-file qualified names carry (".java").
	SourceSuffix    string
	TypeNodeTypes   []string
	FieldNodeTypes  []string
	MethodNodeTypes []string
	PackageNodeType string
	ImportNodeType  string
	// ImplicitPackages are imported into every compilation unit.
	ImplicitPackages []string
	// RootType is the universal superclass; resolution never recurses into it.
	RootType string
	// InterfaceNodeTypes are type declarations whose members are implicitly public.
	InterfaceNodeTypes []string
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".java").
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// IsTypeNode reports whether kind declares a type in this language.
func (s *LanguageSpec) IsTypeNode(kind string) bool {
	return contains(s.TypeNodeTypes, kind)
}

// IsInterfaceNode reports whether kind declares an interface-like type.
func (s *LanguageSpec) IsInterfaceNode(kind string) bool {
	return contains(s.InterfaceNodeTypes, kind)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
