package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tickarena.ai/internal/lobby"
	"tickarena.ai/internal/player"
)

type testOpts struct {
	Width int `yaml:"width"`
}

func TestLoadOptions_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: 42
game:
  create:
    width: 9
players:
  - tcp:
      port: 31001
      token: s3cret
      accept_timeout: 5
  - empty: {}
`), 0o644))

	o, err := LoadOptions[testOpts](path)
	require.NoError(t, err)
	require.NotNil(t, o.Seed)
	require.Equal(t, uint64(42), *o.Seed)
	require.Equal(t, 9, o.Game.Create.Width)
	require.Len(t, o.Players, 2)
	require.Equal(t, 31001, o.Players[0].TCP.Port)
	require.Equal(t, "s3cret", o.Players[0].TCP.Token)
	require.NotNil(t, o.Players[1].Empty)
}

func TestLoadOptions_JSONIsAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"game":{"load_from":"x.snap.zst"},"players":[{"empty":{}}]}`), 0o644))

	o, err := LoadOptions[testOpts](path)
	require.NoError(t, err)
	require.Nil(t, o.Seed)
	require.Equal(t, "x.snap.zst", o.Game.LoadFrom)
}

func TestSaveOptions_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	seed := uint64(7)
	in := FullOptions[testOpts]{
		Seed:    &seed,
		Game:    GameInit[testOpts]{Create: &testOpts{Width: 3}},
		Players: []lobby.Options{{TCP: &player.TCPOptions{Port: 31002}}},
	}
	require.NoError(t, SaveOptions(path, in))
	out, err := LoadOptions[testOpts](path)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestValidate(t *testing.T) {
	require.Error(t, FullOptions[testOpts]{}.Validate())
	require.Error(t, FullOptions[testOpts]{
		Game:    GameInit[testOpts]{Create: &testOpts{}, LoadFrom: "a"},
		Players: []lobby.Options{{Empty: &lobby.EmptyOptions{}}},
	}.Validate())
	require.Error(t, FullOptions[testOpts]{Players: []lobby.Options{{}}}.Validate())
}

func TestSeeds(t *testing.T) {
	require.Equal(t, uint64(5), FixedSeed(5).Seed())
	a, b := NewRNG(9), NewRNG(9)
	for i := 0; i < 10; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}
}
