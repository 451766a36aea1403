package handlers

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

// BindNestedOrFlat binds the request body to obj, accepting both the wrapped
// form {"sale": {...}} and the flat form {...}. Rails-style clients send the
// wrapped payload; everything else sends the object directly.
func BindNestedOrFlat(c *gin.Context, key string, obj interface{}) error {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
	}
	// Leave the body readable for any later middleware.
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if val, ok := wrapped[key]; ok {
			return json.Unmarshal(val, obj)
		}
	}

	// No wrapper key, or the body is not a JSON object at all.
	return json.Unmarshal(body, obj)
}
