package dto

import (
	"testing"

	"github.com/hoplink/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func validTransferRequest() CreateTransferRequest {
	return CreateTransferRequest{
		SourceID:  1,
		Items:     []TransferItemRequest{{Path: "/data/a.tar"}},
		TargetIDs: []uint{2, 3},
		DestDir:   "/srv/incoming",
	}
}

func TestCreateTransferRequestValidate(t *testing.T) {
	req := validTransferRequest()
	assert.Empty(t, req.Validate())

	req = validTransferRequest()
	req.SourceID = 0
	assert.Contains(t, req.Validate(), "source_id is required")

	req = validTransferRequest()
	req.Items = nil
	assert.Contains(t, req.Validate(), "at least one item is required")

	req = validTransferRequest()
	req.Items = []TransferItemRequest{{Path: ""}}
	assert.Contains(t, req.Validate(), "item path must not be empty")

	req = validTransferRequest()
	req.TargetIDs = nil
	assert.Contains(t, req.Validate(), "at least one target is required")

	req = validTransferRequest()
	req.TargetIDs = []uint{1}
	assert.Contains(t, req.Validate(), "source cannot be one of the targets")

	req = validTransferRequest()
	req.DestDir = ""
	assert.Contains(t, req.Validate(), "dest_dir is required")

	req = validTransferRequest()
	req.Tool = "ftp"
	assert.Contains(t, req.Validate(), "tool must be one of: auto, rsync, scp")
}

func TestCreateTransferRequestToRequest(t *testing.T) {
	req := validTransferRequest()
	req.Items = append(req.Items, TransferItemRequest{Path: "/data/logs", IsDir: true})

	out := req.ToRequest()
	assert.Equal(t, domain.ToolPreferenceAuto, out.Tool)
	assert.Len(t, out.Items, 2)
	assert.True(t, out.Items[1].IsDir)

	req.Tool = "scp"
	assert.Equal(t, domain.ToolPreferenceScp, req.ToRequest().Tool)
}

func TestCreateConnectionRequestValidate(t *testing.T) {
	req := CreateConnectionRequest{
		Name: "build-server", Host: "10.0.0.5", Username: "deploy",
		AuthKind: "password", Password: "x",
	}
	assert.Empty(t, req.Validate())

	req.Password = ""
	assert.Contains(t, req.Validate(), "password is required for password auth")

	req.AuthKind = "key"
	assert.Contains(t, req.Validate(), "private_key is required for key auth")

	req.AuthKind = "kerberos"
	assert.Contains(t, req.Validate(), "auth_kind must be one of: password, key")
}

func TestCreateConnectionRequestDefaults(t *testing.T) {
	req := CreateConnectionRequest{}
	assert.Equal(t, 22, req.GetPort())
	assert.Equal(t, domain.AuthKindPassword, req.GetAuthKind())

	req.Port = 2202
	req.AuthKind = "key"
	assert.Equal(t, 2202, req.GetPort())
	assert.Equal(t, domain.AuthKindKey, req.GetAuthKind())
}
