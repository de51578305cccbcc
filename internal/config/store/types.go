package store

// Profile is an identity the launcher can present to the game client.
type Profile struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Username   string         `json:"username" yaml:"username"`
	UUID       string         `json:"uuid" yaml:"uuid"`
	AvatarData map[string]any `json:"avatar_data" yaml:"avatar_data"`
	CreatedAt  string         `json:"-" yaml:"-"`
	UpdatedAt  string         `json:"-" yaml:"-"`
}

// ServerEntry is a saved multiplayer favourite. Address is host:port and is
// never validated.
type ServerEntry struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
}

// LauncherConfig is a point-in-time snapshot of everything the store owns.
type LauncherConfig struct {
	ActiveProfileID string        `json:"active_profile_id" yaml:"active_profile_id"`
	GameRoot        string        `json:"game_root" yaml:"game_root"`
	LaunchMode      string        `json:"launch_mode" yaml:"launch_mode"`
	Profiles        []Profile     `json:"profiles" yaml:"profiles"`
	Servers         []ServerEntry `json:"servers" yaml:"servers"`
}

// Launch modes understood by the client launcher.
const (
	LaunchModeSimulated = "simulated"
	LaunchModeOffline   = "offline"
)

// Setting keys persisted in the settings table.
const (
	SettingActiveProfile = "active_profile_id"
	SettingGameRoot      = "game_root"
	SettingLaunchMode    = "launch_mode"

	// SettingLegacyImported records when launcher_data.json was merged in.
	SettingLegacyImported = "legacy_imported_at"
)

// Seed values written on first open.
const (
	DefaultProfileID   = "default"
	DefaultProfileName = "Default"
	DefaultUsername    = "ReiAyanami"
	DefaultUUID        = "13371337-1337-1337-1337-133713371337"
	DefaultGameRoot    = `E:\dl\install\release\package\game\latest`

	newProfileUsername = "NewPlayer"
)

// ValidLaunchMode reports whether mode is one of the supported launch modes.
func ValidLaunchMode(mode string) bool {
	return mode == LaunchModeSimulated || mode == LaunchModeOffline
}
