package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTables(t *testing.T) {
	parts := BuildingParts()
	bodies := CelestialBodies()

	assert.Len(t, parts, 8)
	assert.Len(t, bodies, 12)

	wantParts := []string{"wall", "window", "door", "roof", "floor", "column", "stairs", "balcony"}
	for i, key := range wantParts {
		assert.Equal(t, key, parts[i].Key)
		assert.NotEmpty(t, parts[i].Name)
		for _, d := range parts[i].Size {
			assert.Greater(t, d, 0.0, "part %s has a non-positive dimension", key)
		}
		assert.Greater(t, parts[i].Opacity, 0.0)
	}

	assert.Equal(t, "sun", bodies[0].Key)
	assert.Equal(t, "comet", bodies[len(bodies)-1].Key)
	for _, b := range bodies {
		assert.Greater(t, b.Radius, 0.0, "body %s", b.Key)
	}
}

func TestTables_AreCopies(t *testing.T) {
	parts := BuildingParts()
	parts[0].Size[0] = 100

	p, err := Part("wall")
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.Size[0])
}

func TestLookups(t *testing.T) {
	t.Run("window is transparent", func(t *testing.T) {
		p, err := Part("window")
		require.NoError(t, err)
		assert.True(t, p.Transparent)
		assert.Equal(t, 0.5, p.Opacity)
	})

	t.Run("special bodies", func(t *testing.T) {
		sun, err := Body("sun")
		require.NoError(t, err)
		assert.True(t, sun.Emissive)

		saturn, err := Body("saturn")
		require.NoError(t, err)
		assert.True(t, saturn.HasRing)

		comet, err := Body("comet")
		require.NoError(t, err)
		assert.True(t, comet.HasTrail)
	})

	t.Run("unknown keys", func(t *testing.T) {
		_, err := Part("moat")
		assert.ErrorIs(t, err, ErrUnknownItem)

		_, err = Body("pluto")
		assert.ErrorIs(t, err, ErrUnknownItem)
	})
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	m, err := ParseMode(" Solar ")
	require.NoError(t, err)
	assert.Equal(t, Solar, m)

	_, err = ParseMode("city")
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{in: "#38bdf8", want: 0x38BDF8},
		{in: "FF8800", want: 0xFF8800},
		{in: "0x00ff00", want: 0x00FF00},
		{in: "#fff", wantErr: true},
		{in: "#gg0000", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "#0a0b0c", Color(0x0A0B0C).Hex())
}

func TestSelector(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := NewSelector()
		cur := s.Current()

		assert.Equal(t, Free, cur.Mode())
		assert.Equal(t, DefaultFree, cur.Color())
	})

	t.Run("every non-free mode has a valid item", func(t *testing.T) {
		s := NewSelector()
		for _, m := range Modes() {
			sel := s.SetMode(m)
			assert.Equal(t, m, sel.Mode())
			if m == Free {
				continue
			}
			require.NotEmpty(t, sel.Key())
			switch m {
			case Building:
				_, err := Part(sel.Key())
				assert.NoError(t, err)
			case Solar:
				_, err := Body(sel.Key())
				assert.NoError(t, err)
			}
		}
	})

	t.Run("picks survive mode switches", func(t *testing.T) {
		s := NewSelector()
		_, err := s.SelectPart("roof")
		require.NoError(t, err)
		_, err = s.SelectBody("saturn")
		require.NoError(t, err)

		assert.Equal(t, "roof", s.SetMode(Building).Key())
		assert.Equal(t, "saturn", s.SetMode(Solar).Key())
	})

	t.Run("invalid pick keeps current selection", func(t *testing.T) {
		s := NewSelector()
		s.SetMode(Solar)

		sel, err := s.Select("deathstar")
		assert.ErrorIs(t, err, ErrUnknownItem)
		assert.Equal(t, Solar, sel.Mode())
		assert.Equal(t, DefaultBody, sel.Key())
	})

	t.Run("select resolves in the active catalog", func(t *testing.T) {
		s := NewSelector()
		s.SetMode(Building)

		sel, err := s.Select("door")
		require.NoError(t, err)
		part, ok := sel.Part()
		require.True(t, ok)
		assert.Equal(t, "Door", part.Name)

		_, err = s.Select("earth")
		assert.ErrorIs(t, err, ErrUnknownItem)
	})

	t.Run("free select parses colors", func(t *testing.T) {
		s := NewSelector()

		sel, err := s.Select("#ff0000")
		require.NoError(t, err)
		assert.Equal(t, Color(0xFF0000), sel.Color())

		_, err = s.Select("red")
		assert.Error(t, err)
	})
}
