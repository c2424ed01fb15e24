package phoneagent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewModelConfig(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		key     string
		model   string
		wantErr bool
	}{
		{"valid https", "https://open.bigmodel.cn/api/paas/v4", "k", "autoglm-phone", false},
		{"valid http with port", "http://localhost:8000/v1", "k", "m", false},
		{"empty url", "", "k", "m", true},
		{"relative url", "/v1", "k", "m", true},
		{"unsupported scheme", "ftp://host/v1", "k", "m", true},
		{"empty key", "https://host", "", "m", true},
		{"empty model", "https://host", "k", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewModelConfig(tt.url, tt.key, tt.model)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.url, cfg.BaseURL)
			assert.NotContains(t, cfg.String(), tt.key+"@")
		})
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("thinking...\n{\"action\":\"Swipe\",\"x\":1,\"y\":2,\"x2\":3,\"y2\":4}\n")
	assert.NoError(t, err)
	assert.Equal(t, ActionSwipe, a.Action)
	x1, y1, x2, y2 := a.swipeCoords()
	assert.Equal(t, []int{1, 2, 3, 4}, []int{x1, y1, x2, y2})

	_, err = ParseAction(`{"text":"no action"}`)
	assert.Error(t, err)

	_, err = ParseAction(`{broken`)
	assert.Error(t, err)
}
