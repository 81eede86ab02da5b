package plugin

// ConfigCtrl is the datasource configuration panel. Rendering is owned by the host.
type ConfigCtrl struct{}

// TemplateURL returns the config panel template.
func (ConfigCtrl) TemplateURL() string { return ConfigTemplate }

// QueryOptionsCtrl is the query options panel. Rendering is owned by the host.
type QueryOptionsCtrl struct{}

// TemplateURL returns the query options template.
func (QueryOptionsCtrl) TemplateURL() string { return QueryOptionsTemplate }

// AnnotationsQueryCtrl is the annotations editor. Rendering is owned by the host.
type AnnotationsQueryCtrl struct{}

// TemplateURL returns the annotations editor template.
func (AnnotationsQueryCtrl) TemplateURL() string { return AnnotationsEditorTemplate }

func markerBindings() []Binding {
	return []Binding{
		{
			Role:        RoleConfigCtrl,
			TemplateURL: ConfigTemplate,
			New:         func(*Scope) (any, error) { return ConfigCtrl{}, nil },
		},
		{
			Role:        RoleQueryOptionsCtrl,
			TemplateURL: QueryOptionsTemplate,
			New:         func(*Scope) (any, error) { return QueryOptionsCtrl{}, nil },
		},
		{
			Role:        RoleAnnotationsQueryCtrl,
			TemplateURL: AnnotationsEditorTemplate,
			New:         func(*Scope) (any, error) { return AnnotationsQueryCtrl{}, nil },
		},
	}
}

func init() {
	for _, b := range markerBindings() {
		Register(b)
	}
}
