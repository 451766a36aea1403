package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bindTarget struct {
	Number string  `json:"number"`
	Price  float64 `json:"price"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    bindTarget
		expectError bool
	}{
		{
			name:     "nested under key",
			key:      "unit",
			body:     `{"unit": {"number": "L-101", "price": 250000}}`,
			expected: bindTarget{Number: "L-101", Price: 250000},
		},
		{
			name:     "flat body",
			key:      "unit",
			body:     `{"number": "L-102", "price": 180000}`,
			expected: bindTarget{Number: "L-102", Price: 180000},
		},
		{
			name:     "nested key absent falls back to flat",
			key:      "sale",
			body:     `{"other": "value", "number": "L-103", "price": 90000}`,
			expected: bindTarget{Number: "L-103", Price: 90000},
		},
		{
			name:        "flat body with wrong type",
			key:         "unit",
			body:        `{"number": "L-104", "price": "invalid"}`,
			expectError: true,
		},
		{
			name:        "nested body with wrong type",
			key:         "unit",
			body:        `{"unit": {"number": "L-105", "price": "invalid"}}`,
			expectError: true,
		},
		{
			name:        "nested key present but not an object",
			key:         "unit",
			body:        `{"unit": "some string"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result bindTarget
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
