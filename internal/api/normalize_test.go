package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProduct_ImageFieldPrecedence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"image only", `{"id":"1","price":1,"image":"a"}`, "a"},
		{"imageUrl only", `{"id":"1","price":1,"imageUrl":"b"}`, "b"},
		{"image_url only", `{"id":"1","price":1,"image_url":"c"}`, "c"},
		{"image wins", `{"id":"1","price":1,"image":"a","imageUrl":"b","image_url":"c"}`, "a"},
		{"blank image skipped", `{"id":"1","price":1,"image":" ","image_url":"c"}`, "c"},
		{"no image", `{"id":"1","price":1}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NormalizeProduct(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Image)
		})
	}
}

func TestNormalizeProduct_Rejects(t *testing.T) {
	_, err := NormalizeProduct(json.RawMessage(`{"price":1}`))
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = NormalizeProduct(json.RawMessage(`{"id":null,"price":1}`))
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = NormalizeProduct(json.RawMessage(`{"id":"1"}`))
	assert.ErrorIs(t, err, ErrMissingPrice)

	_, err = NormalizeProduct(json.RawMessage(`{"id":"1","price":-2}`))
	assert.ErrorIs(t, err, ErrNegativePrice)

	_, err = NormalizeProduct(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestNormalizeProduct_NumericID(t *testing.T) {
	p, err := NormalizeProduct(json.RawMessage(`{"id":12345678901234,"price":"3.10"}`))
	require.NoError(t, err)
	assert.Equal(t, "12345678901234", p.ID)
	assert.Equal(t, "3.1", p.Price.String())
}
