package typesense

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoctorsSchema(t *testing.T) {
	schema := DoctorsSchema()

	assert.Equal(t, DoctorsCollection, schema.Name)
	assert.Equal(t, "created_at", *schema.DefaultSortingField)

	fields := make(map[string]string, len(schema.Fields))
	for _, field := range schema.Fields {
		fields[field.Name] = field.Type
	}
	assert.Equal(t, "string", fields["specialty"])
	assert.Equal(t, "string[]", fields["languages"])
	assert.Equal(t, "int64", fields["created_at"])
}
