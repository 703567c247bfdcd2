package search

type FieldType string

const (
	FieldString   FieldType = "Edm.String"
	FieldDouble   FieldType = "Edm.Double"
	FieldDateTime FieldType = "Edm.DateTimeOffset"
	FieldVector   FieldType = "Collection(Edm.Single)"
)

type Field struct {
	Name       string
	Type       FieldType
	Key        bool
	Searchable bool
	Filterable bool
	Sortable   bool
	Facetable  bool
	Dimensions int
}

type Schema struct {
	Name            string
	Fields          []Field
	SemanticConfig  string
	TitleField      string
	ContentFields   []string
	KeywordFields   []string
	SuggesterFields []string
}

// ReviewSchema describes the product review index.
func ReviewSchema(name string, dimensions int, semanticConfig string) Schema {
	return Schema{
		Name: name,
		Fields: []Field{
			{Name: "review_id", Type: FieldString, Key: true, Filterable: true},
			{Name: "product_name", Type: FieldString, Searchable: true, Filterable: true, Sortable: true, Facetable: true},
			{Name: "product_group", Type: FieldString, Searchable: true, Filterable: true, Sortable: true, Facetable: true},
			{Name: "gender", Type: FieldString, Searchable: true, Filterable: true, Facetable: true},
			{Name: "age_group", Type: FieldString, Searchable: true, Filterable: true, Facetable: true},
			{Name: "rating", Type: FieldDouble, Filterable: true, Sortable: true, Facetable: true},
			{Name: "review_text", Type: FieldString, Searchable: true},
			{Name: "review_vector", Type: FieldVector, Searchable: true, Dimensions: dimensions},
			{Name: "created_at", Type: FieldDateTime, Filterable: true, Sortable: true, Facetable: true},
		},
		SemanticConfig:  semanticConfig,
		TitleField:      "product_name",
		ContentFields:   []string{"review_text"},
		KeywordFields:   []string{"product_group"},
		SuggesterFields: []string{"product_name", "product_group"},
	}
}
