package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRequestMarshalKindKey(t *testing.T) {
	req := StreamRequest{
		Type:      StreamSubscribe,
		Namespace: "default",
		Kind:      WorkloadDeployment,
		Name:      "nginx",
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "subscribe", m["type"])
	assert.Equal(t, "default", m["namespace"])
	assert.Equal(t, "nginx", m["deployment"])
	_, hasName := m["name"]
	assert.False(t, hasName, "name must travel under the kind key")
}

func TestStreamRequestMarshalNoWorkload(t *testing.T) {
	data, err := json.Marshal(StreamRequest{Type: StreamRefresh, Namespace: "prod"})
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, 2)
}

func TestStreamRequestUnmarshal(t *testing.T) {
	cases := []struct {
		raw  string
		kind WorkloadKind
		name string
	}{
		{`{"type":"subscribe","namespace":"ns","deployment":"web"}`, WorkloadDeployment, "web"},
		{`{"type":"subscribe","namespace":"ns","daemonset":"proxy"}`, WorkloadDaemonSet, "proxy"},
		{`{"type":"subscribe","namespace":"ns","job":"backup"}`, WorkloadJob, "backup"},
		{`{"type":"subscribe","namespace":"ns","cronjob":"sync"}`, WorkloadCronJob, "sync"},
	}
	for _, tc := range cases {
		var req StreamRequest
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &req))
		assert.Equal(t, tc.kind, req.Kind, tc.raw)
		assert.Equal(t, tc.name, req.Name, tc.raw)
		assert.Equal(t, "ns", req.Namespace)
	}
}

func TestStreamRequestRoundTrip(t *testing.T) {
	req := StreamRequest{Type: StreamSubscribe, Namespace: "prod", Kind: WorkloadCronJob, Name: "sync"}
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var back StreamRequest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, req, back)
}
