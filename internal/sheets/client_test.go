package sheets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigCredentials(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "service_account.json")
	if err := os.WriteFile(keyFile, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.json")

	tests := []struct {
		name      string
		file      string
		inline    string
		want      string
		wantCreds bool
		wantErr   bool
	}{
		{name: "existing file wins", file: keyFile, inline: `{"from":"env"}`, want: `{"from":"file"}`, wantCreds: true},
		{name: "missing file falls back to inline", file: missing, inline: `{"from":"env"}`, want: `{"from":"env"}`, wantCreds: true},
		{name: "inline only", inline: `{"from":"env"}`, want: `{"from":"env"}`, wantCreds: true},
		{name: "missing file without inline", file: missing, wantErr: true},
		{name: "directory is not a key file", file: dir, wantErr: true},
		{name: "nothing configured", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := NewConfig()
			config.CredentialsFile = tc.file
			config.CredentialsJSON = tc.inline

			if got := config.HasCredentials(); got != tc.wantCreds {
				t.Errorf("HasCredentials() = %v, want %v", got, tc.wantCreds)
			}
			creds, err := config.credentials()
			if (err != nil) != tc.wantErr {
				t.Fatalf("credentials() error = %v, wantErr %v", err, tc.wantErr)
			}
			if string(creds) != tc.want {
				t.Errorf("credentials() = %q, want %q", creds, tc.want)
			}
		})
	}
}
