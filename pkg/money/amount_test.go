package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("should parse plain and formatted amounts", func(t *testing.T) {
		d, ok := Parse("25.00")
		assert.True(t, ok)
		assert.Equal(t, "25", d.String())

		d, ok = Parse(" $1,250.5 ")
		assert.True(t, ok)
		assert.Equal(t, "1250.5", d.String())
	})

	t.Run("should reject non-numeric amounts", func(t *testing.T) {
		_, ok := Parse("free")
		assert.False(t, ok)
		_, ok = Parse("")
		assert.False(t, ok)
	})
}

func TestSum(t *testing.T) {
	t.Run("should add exactly without float drift", func(t *testing.T) {
		total, skipped := Sum("0.1", "0.2", "abc")
		assert.Equal(t, "0.30", Format(total))
		assert.Equal(t, 1, skipped)
	})
}
