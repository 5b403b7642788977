package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinimalModel(t *testing.T) {
	schema, err := Parse("model User { id Serial @pk }")
	require.NoError(t, err)
	require.Len(t, schema.Models, 1)

	m := schema.Models[0]
	assert.Equal(t, "User", m.Name)
	require.Len(t, m.Columns, 1)
	assert.Equal(t, "id", m.Columns[0].Name)
	assert.Equal(t, "Serial", m.Columns[0].Type)
	assert.True(t, m.Columns[0].HasDecorator("pk"))
}

func TestParseColumnWithTypeArgs(t *testing.T) {
	schema, err := Parse("model User { name VarChar(255) }")
	require.NoError(t, err)
	col := schema.Models[0].Columns[0]
	assert.True(t, col.HasArgs)
	assert.Equal(t, []string{"255"}, col.TypeArgs)
}

func TestParseEmptyParenArgsStillHasArgsTrue(t *testing.T) {
	schema, err := Parse(`model User { price Decimal() }`)
	require.NoError(t, err)
	col := schema.Models[0].Columns[0]
	assert.True(t, col.HasArgs)
	assert.Nil(t, col.TypeArgs)
}

func TestParseDecoratorWithArgs(t *testing.T) {
	schema, err := Parse(`model User { role VarChar @default("member") }`)
	require.NoError(t, err)
	dec := schema.Models[0].Columns[0].FindDecorator("default")
	require.NotNil(t, dec)
	assert.Equal(t, []string{"member"}, dec.Args)
}

func TestParseDottedRefArg(t *testing.T) {
	schema, err := Parse(`model Post { authorId Int @ref(User.id) }`)
	require.NoError(t, err)
	dec := schema.Models[0].Columns[0].FindDecorator("ref")
	require.NotNil(t, dec)
	assert.Equal(t, []string{"User.id"}, dec.Args)
}

func TestParseMultipleModelsAndRawSQL(t *testing.T) {
	src := `model A { id Serial @pk }
> CREATE INDEX idx_a ON A(id);
model B { id Serial @pk }`
	schema, err := Parse(src)
	require.NoError(t, err)
	assert.Len(t, schema.Models, 2)
	require.Len(t, schema.RawSQLs, 1)
	assert.Equal(t, "CREATE INDEX idx_a ON A(id);", schema.RawSQLs[0].Text)
}

func TestParseModelWithZeroColumnsFails(t *testing.T) {
	_, err := Parse("model Empty { }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one column")
}

func TestParseDuplicateDecoratorFails(t *testing.T) {
	_, err := Parse("model User { id Int @pk @pk }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate decorator")
}

func TestParseUnexpectedTokenAtTopLevelFails(t *testing.T) {
	_, err := Parse("123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected token")
}

func TestParseMissingModelNameFails(t *testing.T) {
	_, err := Parse("model { id Int }")
	require.Error(t, err)
}

func TestParseUnterminatedModelFails(t *testing.T) {
	_, err := Parse("model User { id Int")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected end of input")
}

func TestParseColumnMissingTypeFails(t *testing.T) {
	_, err := Parse("model User { id }")
	require.Error(t, err)
}

func TestParseArgListTrailingCommaFails(t *testing.T) {
	_, err := Parse("model User { price Decimal(10,) }")
	require.Error(t, err)
}

func TestParseLexerErrorPropagates(t *testing.T) {
	_, err := Parse("model User { id Int $ }")
	require.Error(t, err)
}
