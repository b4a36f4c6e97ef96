package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type stubFeature struct {
	name    string
	enabled bool
	loadErr error
	loaded  bool
}

func (f *stubFeature) Name() string    { return f.name }
func (f *stubFeature) IsEnabled() bool { return f.enabled }
func (f *stubFeature) Load(fiber.Router) error {
	f.loaded = true
	return f.loadErr
}

func TestLoadAll(t *testing.T) {
	app := fiber.New()
	mgr := NewManager()

	a := &stubFeature{name: "a", enabled: true}
	b := &stubFeature{name: "b", enabled: false}
	mgr.Register(a)
	mgr.Register(b)

	assert.NoError(t, mgr.LoadAll(app))
	assert.True(t, a.loaded)
	assert.False(t, b.loaded, "disabled features must be skipped")
}

func TestLoadAll_FirstFailureAborts(t *testing.T) {
	app := fiber.New()
	mgr := NewManager()

	failing := &stubFeature{name: "broken", enabled: true, loadErr: errors.New("boom")}
	after := &stubFeature{name: "after", enabled: true}
	mgr.Register(failing)
	mgr.Register(after)

	err := mgr.LoadAll(app)
	assert.Error(t, err)
	assert.False(t, after.loaded)
}
