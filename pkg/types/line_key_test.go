package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineKeyGroupsByProductAndVariant(t *testing.T) {
	product := uuid.New()
	variant := uuid.New()
	other := uuid.New()

	counts := map[LineKey]int{}
	counts[NewLineKey(product, nil)] += 1
	counts[NewLineKey(product, nil)] += 2
	counts[NewLineKey(product, &variant)] += 4
	counts[NewLineKey(product, &other)] += 8

	require.Len(t, counts, 3)
	assert.Equal(t, 3, counts[LineKey{ProductID: product}])
	assert.Equal(t, 4, counts[LineKey{ProductID: product, VariantID: variant}])
}

func TestLineKeyVariantRoundTrip(t *testing.T) {
	product := uuid.New()
	variant := uuid.New()

	bare := NewLineKey(product, nil)
	assert.False(t, bare.HasVariant())
	assert.Nil(t, bare.Variant())
	assert.Equal(t, product.String(), bare.String())

	narrowed := NewLineKey(product, &variant)
	require.True(t, narrowed.HasVariant())
	assert.Equal(t, variant, *narrowed.Variant())
	assert.Equal(t, product.String()+"/"+variant.String(), narrowed.String())
}
