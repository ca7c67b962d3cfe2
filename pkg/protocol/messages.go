package protocol

const (
	// Setup and match state
	SetLevelInfoKind Kind = iota
	AddTeamKind
	AddClientKind
	ClientJoinedTeamKind
	RemoveClientKind
	AddWallsKind
	FlagPossessionKind
	SetGameOverKind
	SyncMessagesCompleteKind
	TimeSyncKind
	NewTimeRemainingKind
	SetTeamScoreKind
	SetPlayerScoreKind
	ScoreboardUpdateKind
	KillMessageKind
	AchievementMessageKind
	CanSwitchTeamsKind
	ClientRoleChangedKind
	ClientRenamedKind
	VoiceMutedKind
	DisplayMessageKind
	DisplayErrorMessageKind
	GhostUpdateKind
	WinningScoreChangedKind
	SpawnDelayedKind
	ClientBusyKind

	// Chat
	SendChatKind
	DisplayChatMessageKind
	SendChatPMKind
	DisplayChatPMKind
	SendAnnouncementKind
	DisplayAnnouncementKind
	VoiceChatKind
	VoiceDataKind

	// Client requests
	HelloKind
	SubmitPasswordKind
	AddBotKind
	AddBotsKind
	KickBotKind
	KickBotsKind
	ShowBotsKind
	SetMaxBotsKind
	BanPlayerKind
	BanIPKind
	RenamePlayerKind
	GlobalMutePlayerKind
	TriggerTeamChangeKind
	KickPlayerKind
	SetWinningScoreKind
	ResetScoreKind
	ChangeTeamsKind
	SetTimeKind
	AddTimeKind
	SendCommandKind
	RequestScoreboardUpdatesKind
	DropItemKind
	SetCommanderMapKind
	SpawnUndelayedKind
	SetBusyKind

	numKinds
)

type Role uint8

const (
	RoleNone Role = iota
	RoleLevelChanger
	RoleAdmin
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleLevelChanger:
		return "level changer"
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	}
	return "none"
}

type Color struct {
	R float32
	G float32
	B float32
}

type SetLevelInfo struct {
	Name            string
	Description     string
	TeamScoreLimit  int32
	Credits         string
	ObjectCount     int32
	Bounds          [4]float32
	HasLoadoutZone  bool
	EngineerEnabled bool
	AllowBots       bool
	LevelID         uint32
}

type AddTeam struct {
	Name  string
	Color Color
	Score int32
	// Clears any teams the client still knows about
	First bool
}

type AddClient struct {
	Name          string
	Authenticated bool
	Badges        uint32
	IsSelf        bool
	Role          Role
	IsBot         bool
	SpawnDelayed  bool
	Busy          bool
	PlayJoinSound bool
	Announce      bool
}

type ClientJoinedTeam struct {
	Name     string
	Team     int32
	Announce bool
}

type RemoveClient struct {
	Name string
}

// AddWalls with no vertices clears every wall on the client.
type AddWalls struct {
	Vertices []float32
	Width    float32
	Solid    bool
}

type FlagPossession struct {
	Bits uint32
}

type SetGameOver struct {
	Over bool
}

// SyncMessagesComplete closes the setup sequence. Clients echo it back.
type SyncMessagesComplete struct {
	Sequence uint32
}

type TimeSync struct {
	RemainingMs int32
}

type NewTimeRemaining struct {
	RemainingMs    int32
	Unlimited      bool
	RenderOffsetMs int32
}

type SetTeamScore struct {
	Team  int32
	Score int32
}

type SetPlayerScore struct {
	Index int32
	Score int32
}

type ScoreboardUpdate struct {
	Pings   []uint16
	Ratings []float32
}

type KillMessage struct {
	Victim      string
	Killer      string
	Description string
}

// Badges are bit indexes into a client's badge mask.
const (
	BadgeTwentyFiveFlags uint32 = iota
)

type AchievementMessage struct {
	Achievement uint32
	Name        string
}

type CanSwitchTeams struct {
	Allowed bool
}

type ClientRoleChanged struct {
	Name     string
	Role     Role
	Announce bool
}

type ClientRenamed struct {
	Old string
	New string
}

type VoiceMuted struct {
	Muted bool
}

type DisplayMessage struct {
	Text string
}

type DisplayErrorMessage struct {
	Text string
}

type GhostState struct {
	Handle    uint64
	Kind      uint8
	Team      int32
	X         float32
	Y         float32
	MountedOn uint64
}

type GhostUpdate struct {
	Objects []GhostState
}

type WinningScoreChanged struct {
	Score   int32
	Changer string
}

// SpawnDelayed tells clients that a player is idle and will not spawn until
// they return.
type SpawnDelayed struct {
	Name    string
	Delayed bool
}

type ClientBusy struct {
	Name string
	Busy bool
}

type SendChat struct {
	Global bool
	Text   string
}

type DisplayChatMessage struct {
	Global bool
	From   string
	Text   string
}

type SendChatPM struct {
	To   string
	Text string
}

type DisplayChatPM struct {
	From string
	To   string
	Text string
}

type SendAnnouncement struct {
	Text string
}

type DisplayAnnouncement struct {
	From string
	Text string
}

type VoiceChat struct {
	Echo bool
	Data []byte
}

type VoiceData struct {
	From string
	Data []byte
}

type Hello struct {
	Name     string
	Password string
}

type SubmitPassword struct {
	Password string
}

type AddBot struct {
	Args []string
}

type AddBots struct {
	Count int32
	Args  []string
}

type KickBot struct{}

type KickBots struct{}

type ShowBots struct{}

type SetMaxBots struct {
	Count int32
}

type BanPlayer struct {
	Name    string
	Minutes int32
}

type BanIP struct {
	IP      string
	Minutes int32
}

type RenamePlayer struct {
	Old string
	New string
}

type GlobalMutePlayer struct {
	Name string
}

type TriggerTeamChange struct {
	Name string
	Team int32
}

type KickPlayer struct {
	Name string
}

type SetWinningScore struct {
	Score int32
}

type ResetScore struct{}

type ChangeTeams struct {
	Team int32
}

type SetTime struct {
	TimeMs int32
}

type AddTime struct {
	TimeMs int32
}

type SendCommand struct {
	Name string
	Args []string
}

type RequestScoreboardUpdates struct {
	Enabled bool
}

type DropItem struct{}

type SetCommanderMap struct {
	Enabled bool
}

// SpawnUndelayed is an idle player coming back.
type SpawnUndelayed struct{}

// SetBusy marks a player as chatting or in a menu.
type SetBusy struct {
	Busy bool
}

func (SetLevelInfo) Kind() Kind             { return SetLevelInfoKind }
func (AddTeam) Kind() Kind                  { return AddTeamKind }
func (AddClient) Kind() Kind                { return AddClientKind }
func (ClientJoinedTeam) Kind() Kind         { return ClientJoinedTeamKind }
func (RemoveClient) Kind() Kind             { return RemoveClientKind }
func (AddWalls) Kind() Kind                 { return AddWallsKind }
func (FlagPossession) Kind() Kind           { return FlagPossessionKind }
func (SetGameOver) Kind() Kind              { return SetGameOverKind }
func (SyncMessagesComplete) Kind() Kind     { return SyncMessagesCompleteKind }
func (TimeSync) Kind() Kind                 { return TimeSyncKind }
func (NewTimeRemaining) Kind() Kind         { return NewTimeRemainingKind }
func (SetTeamScore) Kind() Kind             { return SetTeamScoreKind }
func (SetPlayerScore) Kind() Kind           { return SetPlayerScoreKind }
func (ScoreboardUpdate) Kind() Kind         { return ScoreboardUpdateKind }
func (KillMessage) Kind() Kind              { return KillMessageKind }
func (AchievementMessage) Kind() Kind       { return AchievementMessageKind }
func (CanSwitchTeams) Kind() Kind           { return CanSwitchTeamsKind }
func (ClientRoleChanged) Kind() Kind        { return ClientRoleChangedKind }
func (ClientRenamed) Kind() Kind            { return ClientRenamedKind }
func (VoiceMuted) Kind() Kind               { return VoiceMutedKind }
func (DisplayMessage) Kind() Kind           { return DisplayMessageKind }
func (DisplayErrorMessage) Kind() Kind      { return DisplayErrorMessageKind }
func (GhostUpdate) Kind() Kind              { return GhostUpdateKind }
func (WinningScoreChanged) Kind() Kind      { return WinningScoreChangedKind }
func (SpawnDelayed) Kind() Kind             { return SpawnDelayedKind }
func (ClientBusy) Kind() Kind               { return ClientBusyKind }
func (SendChat) Kind() Kind                 { return SendChatKind }
func (DisplayChatMessage) Kind() Kind       { return DisplayChatMessageKind }
func (SendChatPM) Kind() Kind               { return SendChatPMKind }
func (DisplayChatPM) Kind() Kind            { return DisplayChatPMKind }
func (SendAnnouncement) Kind() Kind         { return SendAnnouncementKind }
func (DisplayAnnouncement) Kind() Kind      { return DisplayAnnouncementKind }
func (VoiceChat) Kind() Kind                { return VoiceChatKind }
func (VoiceData) Kind() Kind                { return VoiceDataKind }
func (Hello) Kind() Kind                    { return HelloKind }
func (SubmitPassword) Kind() Kind           { return SubmitPasswordKind }
func (AddBot) Kind() Kind                   { return AddBotKind }
func (AddBots) Kind() Kind                  { return AddBotsKind }
func (KickBot) Kind() Kind                  { return KickBotKind }
func (KickBots) Kind() Kind                 { return KickBotsKind }
func (ShowBots) Kind() Kind                 { return ShowBotsKind }
func (SetMaxBots) Kind() Kind               { return SetMaxBotsKind }
func (BanPlayer) Kind() Kind                { return BanPlayerKind }
func (BanIP) Kind() Kind                    { return BanIPKind }
func (RenamePlayer) Kind() Kind             { return RenamePlayerKind }
func (GlobalMutePlayer) Kind() Kind         { return GlobalMutePlayerKind }
func (TriggerTeamChange) Kind() Kind        { return TriggerTeamChangeKind }
func (KickPlayer) Kind() Kind               { return KickPlayerKind }
func (SetWinningScore) Kind() Kind          { return SetWinningScoreKind }
func (ResetScore) Kind() Kind               { return ResetScoreKind }
func (ChangeTeams) Kind() Kind              { return ChangeTeamsKind }
func (SetTime) Kind() Kind                  { return SetTimeKind }
func (AddTime) Kind() Kind                  { return AddTimeKind }
func (SendCommand) Kind() Kind              { return SendCommandKind }
func (RequestScoreboardUpdates) Kind() Kind { return RequestScoreboardUpdatesKind }
func (DropItem) Kind() Kind                 { return DropItemKind }
func (SetCommanderMap) Kind() Kind          { return SetCommanderMapKind }
func (SpawnUndelayed) Kind() Kind           { return SpawnUndelayedKind }
func (SetBusy) Kind() Kind                  { return SetBusyKind }

func init() {
	register(
		entry[SetLevelInfo](ServerToClient, Ordered),
		entry[AddTeam](ServerToClient, Ordered),
		entry[AddClient](ServerToClient, Ordered),
		entry[ClientJoinedTeam](ServerToClient, Ordered),
		entry[RemoveClient](ServerToClient, Ordered),
		entry[AddWalls](ServerToClient, Bulk),
		entry[FlagPossession](ServerToClient, Ordered),
		entry[SetGameOver](ServerToClient, Ordered),
		entry[SyncMessagesComplete](Bidirectional, Ordered),
		entry[TimeSync](ServerToClient, Unguaranteed),
		entry[NewTimeRemaining](ServerToClient, Ordered),
		entry[SetTeamScore](ServerToClient, Ordered),
		entry[SetPlayerScore](ServerToClient, Ordered),
		entry[ScoreboardUpdate](ServerToClient, Bulk),
		entry[KillMessage](ServerToClient, Ordered),
		entry[AchievementMessage](ServerToClient, Ordered),
		entry[CanSwitchTeams](ServerToClient, Ordered),
		entry[ClientRoleChanged](ServerToClient, Ordered),
		entry[ClientRenamed](ServerToClient, Ordered),
		entry[VoiceMuted](ServerToClient, Ordered),
		entry[DisplayMessage](ServerToClient, Ordered),
		entry[DisplayErrorMessage](ServerToClient, Ordered),
		entry[GhostUpdate](ServerToClient, Unguaranteed),
		entry[WinningScoreChanged](ServerToClient, Ordered),
		entry[SpawnDelayed](ServerToClient, Ordered),
		entry[ClientBusy](ServerToClient, Ordered),

		entry[SendChat](ClientToServer, Ordered),
		entry[DisplayChatMessage](ServerToClient, Ordered),
		entry[SendChatPM](ClientToServer, Ordered),
		entry[DisplayChatPM](ServerToClient, Ordered),
		entry[SendAnnouncement](ClientToServer, Ordered),
		entry[DisplayAnnouncement](ServerToClient, Ordered),
		entry[VoiceChat](ClientToServer, Unguaranteed),
		entry[VoiceData](ServerToClient, Unguaranteed),

		entry[Hello](ClientToServer, Ordered),
		entry[SubmitPassword](ClientToServer, Ordered),
		entry[AddBot](ClientToServer, Ordered),
		entry[AddBots](ClientToServer, Ordered),
		entry[KickBot](ClientToServer, Ordered),
		entry[KickBots](ClientToServer, Ordered),
		entry[ShowBots](ClientToServer, Ordered),
		entry[SetMaxBots](ClientToServer, Ordered),
		entry[BanPlayer](ClientToServer, Ordered),
		entry[BanIP](ClientToServer, Ordered),
		entry[RenamePlayer](ClientToServer, Ordered),
		entry[GlobalMutePlayer](ClientToServer, Ordered),
		entry[TriggerTeamChange](ClientToServer, Ordered),
		entry[KickPlayer](ClientToServer, Ordered),
		entry[SetWinningScore](ClientToServer, Ordered),
		entry[ResetScore](ClientToServer, Ordered),
		entry[ChangeTeams](ClientToServer, Ordered),
		entry[SetTime](ClientToServer, Ordered),
		entry[AddTime](ClientToServer, Ordered),
		entry[SendCommand](ClientToServer, Ordered),
		entry[RequestScoreboardUpdates](ClientToServer, Ordered),
		entry[DropItem](ClientToServer, Ordered),
		entry[SetCommanderMap](ClientToServer, Ordered),
		entry[SpawnUndelayed](ClientToServer, Ordered),
		entry[SetBusy](ClientToServer, Ordered),
	)
}
