package runtime

import (
	"encoding/base64"
	"fmt"
	"inbox-lab/domain"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// storedSession is what the registry persists for a user: the remote
// credential and the Argon2id hash of the secret it was opened with.
type storedSession struct {
	Verifier   string
	Credential domain.Credential
}

func encodeSession(session storedSession) (domain.Credential, error) {
	envelope, err := structpb.NewStruct(map[string]any{
		"verifier":   session.Verifier,
		"credential": base64.StdEncoding.EncodeToString(session.Credential),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(envelope)
}

func decodeSession(data domain.Credential) (storedSession, error) {
	var envelope structpb.Struct
	if err := proto.Unmarshal(data, &envelope); err != nil {
		return storedSession{}, err
	}
	fields := envelope.GetFields()

	verifier := strings.TrimSpace(fields["verifier"].GetStringValue())
	if verifier == "" {
		return storedSession{}, fmt.Errorf("missing verifier")
	}
	credential, err := base64.StdEncoding.DecodeString(fields["credential"].GetStringValue())
	if err != nil {
		return storedSession{}, fmt.Errorf("credential: %w", err)
	}
	if len(credential) == 0 {
		return storedSession{}, fmt.Errorf("empty credential")
	}
	return storedSession{Verifier: verifier, Credential: credential}, nil
}
