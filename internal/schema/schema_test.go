package schema

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trafficModel() *Model {
	keyword := Simple{Property{Type: Keyword}}
	long := Simple{Property{Type: Long}}
	return &Model{
		Name: "TrafficInfo",
		Document: &Document{
			IndexName:       "traffic_index",
			TypeName:        "traffic_type",
			Shards:          1,
			Replicas:        Replicas(0),
			RefreshInterval: "2s",
		},
		Fields: []Field{
			{Name: "siteStartAndEnd", Spec: Simple{Property{Type: Text, Analyzer: NGramAnalyzer}}},
			{Name: "departureDate", Spec: keyword},
			{Name: "flightNumber", Spec: keyword},
			{Name: "dataTime", Spec: long},
			{Name: "price", Spec: keyword},
			{Name: "numberOfCabins", Spec: Simple{Property{Type: Integer}}},
			{Name: "classCode", Spec: keyword},
			{Name: "createTime", Spec: long},
			{Name: "trafficInfo", Spec: keyword},
		},
	}
}

const trafficMappingJSON = `{"properties":{` +
	`"siteStartAndEnd":{"store":false,"type":"text","analyzer":"charSplit"},` +
	`"departureDate":{"store":false,"type":"keyword"},` +
	`"flightNumber":{"store":false,"type":"keyword"},` +
	`"dataTime":{"store":false,"type":"long"},` +
	`"price":{"store":false,"type":"keyword"},` +
	`"numberOfCabins":{"store":false,"type":"integer"},` +
	`"classCode":{"store":false,"type":"keyword"},` +
	`"createTime":{"store":false,"type":"long"},` +
	`"trafficInfo":{"store":false,"type":"keyword"}}}`

const trafficSettingsJSON = `{"index.refresh_interval":"2s","index.number_of_replicas":0,` +
	`"index.number_of_shards":1,"index.max_result_window":100000000,` +
	`"analysis":{"analyzer":{"charSplit":{"type":"custom","tokenizer":"ngram_tokenizer"}},` +
	`"tokenizer":{"ngram_tokenizer":{"type":"ngram","min_gram":"1","max_gram":"30","token_chars":["letter","digit"]}}}}`

func TestCompileSchema_Traffic(t *testing.T) {
	s, err := CompileSchema(trafficModel())
	require.NoError(t, err)

	assert.Equal(t, "traffic_index", s.IndexName)
	assert.Equal(t, "traffic_type", s.TypeName)

	mapping, err := json.Marshal(s.Mapping)
	require.NoError(t, err)
	assert.Equal(t, trafficMappingJSON, string(mapping))

	settings, err := json.Marshal(s.Settings)
	require.NoError(t, err)
	assert.Equal(t, trafficSettingsJSON, string(settings))
}

func TestCompileSchema_Defaults(t *testing.T) {
	m := trafficModel()
	m.Document = &Document{IndexName: "idx", TypeName: "doc"}

	s, err := CompileSchema(m)
	require.NoError(t, err)

	assert.Equal(t, DefaultShards, lookup(t, s.Settings, SettingShards))
	assert.Equal(t, DefaultReplicas, lookup(t, s.Settings, SettingReplicas))
	assert.Equal(t, DefaultRefreshInterval, lookup(t, s.Settings, SettingRefreshInterval))
}

func TestCompileSchema_InheritedDocument(t *testing.T) {
	base := &Model{Name: "Base", Document: &Document{IndexName: "base_index", TypeName: "base_type"}}
	child := &Model{
		Name:   "Child",
		Parent: base,
		Fields: []Field{{Name: "title", Spec: Simple{Property{Type: Text}}}},
	}

	s, err := CompileSchema(child)
	require.NoError(t, err)
	assert.Equal(t, "base_index", s.IndexName)
	assert.Equal(t, "base_type", s.TypeName)
}

func TestCompileSchema_DocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"missing descriptor", nil},
		{"missing index name", &Document{TypeName: "t"}},
		{"missing type name", &Document{IndexName: "i"}},
		{"negative shards", &Document{IndexName: "i", TypeName: "t", Shards: -1}},
		{"negative replicas", &Document{IndexName: "i", TypeName: "t", Replicas: Replicas(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := trafficModel()
			m.Document = tt.doc

			_, err := CompileSchema(m)
			assert.True(t, errors.Is(err, ErrSchema))

			_, err = IndexNameOf(m)
			assert.True(t, errors.Is(err, ErrSchema))

			_, err = TypeNameOf(m)
			assert.True(t, errors.Is(err, ErrSchema))
		})
	}
}

func TestIdentityMatchesCompile(t *testing.T) {
	m := trafficModel()

	s, err := CompileSchema(m)
	require.NoError(t, err)

	index, err := IndexNameOf(m)
	require.NoError(t, err)
	typ, err := TypeNameOf(m)
	require.NoError(t, err)

	assert.Equal(t, s.IndexName, index)
	assert.Equal(t, s.TypeName, typ)
}

func TestSchema_Body(t *testing.T) {
	s, err := CompileSchema(trafficModel())
	require.NoError(t, err)

	typeless := s.Body(false)
	assert.Equal(t, []string{"settings", "mappings"}, typeless.Keys())
	assert.Equal(t, s.Mapping, typeless.Sub("mappings"))

	legacy := s.Body(true)
	assert.Equal(t, []string{"traffic_type"}, legacy.Sub("mappings").Keys())
	assert.Equal(t, s.Mapping, legacy.Sub("mappings").Sub("traffic_type"))
}

func TestSchema_MarshalJSON(t *testing.T) {
	s, err := CompileSchema(trafficModel())
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "traffic_index", decoded["index"])
	assert.Equal(t, "traffic_type", decoded["type"])
	assert.Contains(t, decoded, "settings")
	assert.Contains(t, decoded, "mappings")
}

func TestCompileSchema_Concurrent(t *testing.T) {
	want, err := CompileSchema(trafficModel())
	require.NoError(t, err)

	m := trafficModel()
	var wg sync.WaitGroup
	results := make([]*Schema, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := CompileSchema(m)
			if err == nil {
				results[i] = s
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
