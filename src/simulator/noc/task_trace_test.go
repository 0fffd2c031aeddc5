package noc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeTaskTraceParsesAndValidates(t *testing.T) {
	raw := []byte(`[
		{
			"tile_id": 0,
			"layer_id": 0,
			"target_tile_id": [1],
			"source_tile_id": [-1],
			"dependence": [
				{
					"wait": [{"x":1,"y":1,"start":0,"end":3,"bit_width":9,"tile_id":-1}],
					"output": [{"x":0,"y":0,"start":0,"end":3,"bit_width":9,"layer_id":0,"tile_id":0}],
					"drop": [],
					"latency": 4
				}
			]
		}
	]`)

	behaviors, err := DecodeTaskTrace(raw)
	require.NoError(t, err)
	require.Len(t, behaviors, 1)
	require.Equal(t, 0, behaviors[0].TileID)
	require.Equal(t, []int{1}, behaviors[0].TargetTileIDs)
	require.Len(t, behaviors[0].Dependencies, 1)
	require.Equal(t, 4.0, behaviors[0].Dependencies[0].Latency)
}

func TestDecodeTaskTraceRejectsDropNotSubsetOfWait(t *testing.T) {
	raw := []byte(`[
		{
			"tile_id": 0,
			"target_tile_id": [-1],
			"source_tile_id": [-1],
			"dependence": [
				{
					"wait": [{"x":1,"tile_id":-1}],
					"output": [{"x":0,"tile_id":0}],
					"drop": [{"x":9,"tile_id":-1}],
					"latency": 1
				}
			]
		}
	]`)
	_, err := DecodeTaskTrace(raw)
	require.Error(t, err)
}

func TestDecodeTaskTraceRejectsNonPositiveLatency(t *testing.T) {
	raw := []byte(`[
		{
			"tile_id": 0,
			"target_tile_id": [-1],
			"source_tile_id": [-1],
			"dependence": [
				{"wait": [], "output": [], "drop": [], "latency": 0}
			]
		}
	]`)
	_, err := DecodeTaskTrace(raw)
	require.Error(t, err)
}

func TestExpandForImagesRewritesImageID(t *testing.T) {
	behaviors := []TileBehavior{
		{
			TileID: 0,
			Dependencies: []Dependency{
				{Output: []Chunk{{X: 0, ImageID: -1}}, Latency: 1},
			},
		},
	}
	expanded := ExpandForImages(behaviors, 7)
	require.Equal(t, 7, expanded[0].Dependencies[0].Output[0].ImageID)
	require.Equal(t, -1, behaviors[0].Dependencies[0].Output[0].ImageID, "the source trace must not be mutated")
}

func TestDecodeTaskTraceForTaskStampsTaskID(t *testing.T) {
	raw := []byte(`[
		{
			"tile_id": 0,
			"target_tile_id": [-1],
			"source_tile_id": [-1],
			"dependence": [
				{"wait": [], "output": [], "drop": [], "latency": 1}
			]
		}
	]`)
	behaviors, err := DecodeTaskTraceForTask(raw, 3)
	require.NoError(t, err)
	require.Len(t, behaviors, 1)
	require.Equal(t, 3, behaviors[0].TaskID)
	require.Equal(t, 0, behaviors[0].TileID)
}

func TestExpandForImageCountConcatenatesDependenciesPerImage(t *testing.T) {
	behaviors := []TileBehavior{
		{
			TaskID: 1,
			TileID: 0,
			Dependencies: []Dependency{
				{Output: []Chunk{{X: 0, ImageID: -1}}, Latency: 1},
				{Output: []Chunk{{X: 1, ImageID: -1}}, Latency: 2},
			},
		},
	}
	expanded := ExpandForImageCount(behaviors, 3)
	require.Len(t, expanded, 1)
	require.Equal(t, 1, expanded[0].TaskID)
	require.Len(t, expanded[0].Dependencies, 6, "3 images x 2 dependencies each")
	for image := 0; image < 3; image++ {
		require.Equal(t, image, expanded[0].Dependencies[image*2].Output[0].ImageID)
		require.Equal(t, image, expanded[0].Dependencies[image*2+1].Output[0].ImageID)
	}
	require.Len(t, behaviors[0].Dependencies, 2, "the source trace must not be mutated")
}
