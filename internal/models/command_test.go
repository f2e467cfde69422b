package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLight_MarshalOnlyPresentFields(t *testing.T) {
	tests := []struct {
		name string
		cmd  CommandLight
		want string
	}{
		{name: "empty", cmd: EmptyCommand(), want: `{}`},
		{name: "on preset", cmd: OnCommand(), want: `{"on":true}`},
		{name: "off preset", cmd: OffCommand(), want: `{"on":false}`},
		{name: "brightness only", cmd: EmptyCommand().WithBri(128), want: `{"bri":128}`},
		{name: "trailing field only", cmd: EmptyCommand().WithTransitionTime(4), want: `{"transitiontime":4}`},
		{name: "gap in the middle", cmd: OnCommand().WithSat(254), want: `{"on":true,"sat":254}`},
		{
			name: "everything",
			cmd:  OffCommand().WithBri(0).WithHue(65535).WithSat(255).WithTransitionTime(10),
			want: `{"on":false,"bri":0,"hue":65535,"sat":255,"transitiontime":10}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.True(t, json.Valid(got))
			assert.NotContains(t, string(got), "null")
		})
	}
}

func TestCommandLight_RoundTripPreservesFieldSet(t *testing.T) {
	commands := []CommandLight{
		OnCommand(),
		EmptyCommand().WithHue(1000),
		OffCommand().WithBri(1).WithTransitionTime(0),
		EmptyCommand().WithBri(10).WithHue(20).WithSat(30),
	}

	for _, cmd := range commands {
		data, err := json.Marshal(cmd)
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(data, &fields))

		keys := make([]string, 0, len(fields))
		for k, v := range fields {
			assert.NotNil(t, v, "field %s", k)
			keys = append(keys, k)
		}
		assert.ElementsMatch(t, cmd.Fields(), keys)

		var decoded CommandLight
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, cmd.Fields(), decoded.Fields())

		again, err := json.Marshal(decoded)
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(again))
	}
}

func TestCommandLight_BuildersDoNotMutate(t *testing.T) {
	base := OnCommand()
	brighter := base.WithBri(200)

	_, ok := base.Bri()
	assert.False(t, ok, "builder must not modify the receiver")

	bri, ok := brighter.Bri()
	assert.True(t, ok)
	assert.Equal(t, uint8(200), bri)

	on, ok := brighter.On()
	assert.True(t, ok)
	assert.True(t, on)
}

func TestCommandLight_UnmarshalNullIsAbsent(t *testing.T) {
	var cmd CommandLight
	require.NoError(t, json.Unmarshal([]byte(`{"on":null,"hue":12,"effect":"colorloop"}`), &cmd))

	assert.Equal(t, []string{"hue"}, cmd.Fields())
	assert.False(t, cmd.IsEmpty())
	assert.True(t, EmptyCommand().IsEmpty())
}

func TestCommandLight_UnmarshalRejectsOutOfRange(t *testing.T) {
	var cmd CommandLight
	assert.Error(t, json.Unmarshal([]byte(`{"bri":300}`), &cmd))
}
