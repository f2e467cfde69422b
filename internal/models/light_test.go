package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLight = `{
	"state": {
		"on": true,
		"bri": 144,
		"hue": 13088,
		"sat": 212,
		"xy": [0.5128, 0.4147],
		"alert": "none",
		"effect": "none",
		"colormode": "xy",
		"reachable": true
	},
	"type": "Extended color light",
	"name": "Hue Lamp 1",
	"modelid": "LCT001",
	"manufacturername": "Philips",
	"swversion": "66009461",
	"uniqueid": "00:17:88:01:00:bd:c7:b9-0b",
	"pointsymbol": {"1": "none", "2": "none"}
}`

func TestLight_Decode(t *testing.T) {
	var light Light
	require.NoError(t, json.Unmarshal([]byte(sampleLight), &light))

	assert.Equal(t, "Hue Lamp 1", light.Name)
	assert.Equal(t, "LCT001", light.ModelID)
	assert.Equal(t, "Extended color light", light.Type)
	assert.Equal(t, "Philips", light.ManufacturerName)
	assert.Equal(t, [2]float64{0.5128, 0.4147}, light.State.XY)
	assert.Equal(t, uint16(0), light.State.CT, "missing ct defaults to zero")
	assert.True(t, light.State.Reachable)
	assert.Len(t, light.PointSymbol, 2)
	assert.JSONEq(t, `"none"`, string(light.PointSymbol["1"]))
}

func TestLight_CloneIsDeep(t *testing.T) {
	var light Light
	require.NoError(t, json.Unmarshal([]byte(sampleLight), &light))

	clone := light.Clone()
	clone.Name = "Renamed"
	clone.PointSymbol["1"][1] = 'X'
	clone.PointSymbol["3"] = json.RawMessage(`"new"`)

	assert.Equal(t, "Hue Lamp 1", light.Name)
	assert.JSONEq(t, `"none"`, string(light.PointSymbol["1"]))
	assert.NotContains(t, light.PointSymbol, "3")
}

func TestLightState_BrightnessPct(t *testing.T) {
	tests := []struct {
		bri  uint8
		want int
	}{
		{0, 0},
		{128, 50},
		{255, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LightState{Bri: tt.bri}.BrightnessPct())
	}
}

func TestLight_DecodeRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "null state", body: strings.Replace(sampleLight, `"state": {`, `"state": null, "x": {`, 1)},
		{name: "missing name", body: strings.Replace(sampleLight, `"name": "Hue Lamp 1",`, ``, 1)},
		{name: "missing reachable", body: strings.Replace(sampleLight, `"reachable"`, `"reachability"`, 1)},
		{name: "null bri", body: strings.Replace(sampleLight, `"bri": 144`, `"bri": null`, 1)},
		{name: "null light", body: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEqual(t, sampleLight, tt.body)
			var light Light
			assert.Error(t, json.Unmarshal([]byte(tt.body), &light))
		})
	}
}

func TestLightState_CTIsOptional(t *testing.T) {
	var state LightState
	err := json.Unmarshal([]byte(`{"on":false,"bri":1,"hue":0,"sat":0,"effect":"none","xy":[0,0],"alert":"none","colormode":"hs","reachable":false}`), &state)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), state.CT)

	err = json.Unmarshal([]byte(`{"on":false,"bri":1,"hue":0,"sat":0,"effect":"none","xy":[0,0],"ct":153,"alert":"none","colormode":"ct","reachable":false}`), &state)
	require.NoError(t, err)
	assert.Equal(t, uint16(153), state.CT)
}
