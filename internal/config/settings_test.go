package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormaliseSettingsFallsBackToDefaults(t *testing.T) {
	out := NormaliseSettings(Settings{Color: "sometimes", DumpFormat: "xml"})
	if out.Color != ColorModeAuto {
		t.Fatalf("expected auto color, got %q", out.Color)
	}
	if out.DumpFormat != DumpFormatJSON {
		t.Fatalf("expected json dump format, got %q", out.DumpFormat)
	}
}

func TestNormaliseSettingsAcceptsCaseVariants(t *testing.T) {
	out := NormaliseSettings(Settings{Color: " NEVER ", DumpFormat: "YAML"})
	if out.Color != ColorModeNever {
		t.Fatalf("expected never, got %q", out.Color)
	}
	if out.DumpFormat != DumpFormatYAML {
		t.Fatalf("expected yaml, got %q", out.DumpFormat)
	}
}

func TestDecodeSettingsTOML(t *testing.T) {
	data := []byte("color = \"never\"\ndump_format = \"yaml\"\nrecursive = true\n")
	settings, err := decodeSettings(data, SettingsFormatTOML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if settings.Color != ColorModeNever || settings.DumpFormat != DumpFormatYAML || !settings.Recursive {
		t.Fatalf("unexpected settings %+v", settings)
	}
}

func TestDecodeSettingsJSONRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"color": "never", "surprise": true}`)
	if _, err := decodeSettings(data, SettingsFormatJSON); err == nil {
		t.Fatalf("expected unknown-field error")
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	handle := SettingsHandle{
		Path:   filepath.Join(dir, "settings.toml"),
		Format: SettingsFormatTOML,
	}

	in := Settings{Color: ColorModeAlways, DumpFormat: DumpFormatYAML, Recursive: true}
	if err := SaveSettings(in, handle); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(handle.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	out, err := decodeSettings(data, handle.Format)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip changed settings: %+v vs %+v", in, out)
	}
}
