package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BridgeCredentials holds the API credentials for a paired Hue bridge and the
// entertainment area last used with it.
type BridgeCredentials struct {
	Username  string `json:"username"`
	Clientkey string `json:"clientkey"`
	AreaID    string `json:"area_id,omitempty"`
}

// credentialsDir overrides the default credentials directory for testing.
// When empty, ~/.barsync is used.
var credentialsDir string

func credentialsPath() (string, error) {
	if credentialsDir != "" {
		return filepath.Join(credentialsDir, "credentials.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".barsync", "credentials.json"), nil
}

// readAllCredentials returns an empty map when the file does not exist yet.
func readAllCredentials(path string) (map[string]BridgeCredentials, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]BridgeCredentials), nil
	}
	if err != nil {
		return nil, err
	}
	creds := make(map[string]BridgeCredentials)
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return creds, nil
}

func writeAllCredentials(path string, all map[string]BridgeCredentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// updateCredentials applies fn to the stored credential map and writes it back.
func updateCredentials(fn func(map[string]BridgeCredentials)) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	all, err := readAllCredentials(path)
	if err != nil {
		// A corrupt file is replaced rather than blocking pairing forever.
		all = make(map[string]BridgeCredentials)
	}
	fn(all)
	return writeAllCredentials(path, all)
}

// LoadCredentials loads the stored credentials for the given bridge ID.
// Returns false with no error if no credentials are found.
func LoadCredentials(bridgeID string) (BridgeCredentials, bool, error) {
	path, err := credentialsPath()
	if err != nil {
		return BridgeCredentials{}, false, err
	}
	all, err := readAllCredentials(path)
	if err != nil {
		return BridgeCredentials{}, false, err
	}
	bc, ok := all[bridgeID]
	return bc, ok, nil
}

// SaveCredentials persists the credentials for the given bridge ID.
// Creates the credentials directory with 0700 if needed.
func SaveCredentials(bridgeID string, creds BridgeCredentials) error {
	return updateCredentials(func(all map[string]BridgeCredentials) {
		all[bridgeID] = creds
	})
}

// RememberArea records the entertainment area chosen for a paired bridge.
func RememberArea(bridgeID, areaID string) error {
	return updateCredentials(func(all map[string]BridgeCredentials) {
		if bc, ok := all[bridgeID]; ok {
			bc.AreaID = areaID
			all[bridgeID] = bc
		}
	})
}

// DeleteCredentials removes the stored credentials for the given bridge ID.
func DeleteCredentials(bridgeID string) error {
	return updateCredentials(func(all map[string]BridgeCredentials) {
		delete(all, bridgeID)
	})
}
