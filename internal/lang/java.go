package lang

func init() {
	Register(&LanguageSpec{
		Language:       Java,
		FileExtensions: []string{".java"},
		SourceSuffix:   ".java",
		TypeNodeTypes: []string{
			"class_declaration",
			"interface_declaration",
			"enum_declaration",
			"annotation_type_declaration",
			"record_declaration",
		},
		InterfaceNodeTypes: []string{"interface_declaration", "annotation_type_declaration"},
		FieldNodeTypes:     []string{"field_declaration"},
		MethodNodeTypes:    []string{"method_declaration"},
		PackageNodeType:    "package_declaration",
		ImportNodeType:     "import_declaration",
		ImplicitPackages:   []string{"java.lang"},
		RootType:           "java.lang.Object",
	})
}
