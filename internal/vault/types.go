package vault

import "time"

// ProviderKind enumerates the credential's target. Exchange credentials
// additionally carry a Venue; AI-class credentials (OpenAI, Anthropic,
// Custom) count against MaxAIKeys per owner.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderCustom    ProviderKind = "custom"
	ProviderExchange  ProviderKind = "exchange"
)

// IsAIClass reports whether a provider counts against the per-owner AI key
// cap.
func (p ProviderKind) IsAIClass() bool {
	return p == ProviderOpenAI || p == ProviderAnthropic || p == ProviderCustom
}

// Metadata models the credential's dynamic fields as a small tagged union
// over known keys plus an opaque extension map, per the design note on
// dynamic metadata maps: parsers become total functions instead of probing
// an untyped string-to-any map.
type Metadata struct {
	BaseURL         string            `json:"base_url,omitempty"`
	Model           string            `json:"model,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	ExchangeType    string            `json:"exchange_type,omitempty"`
	DefaultLeverage *int              `json:"default_leverage,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Handle is the persisted, non-secret view of a credential: the envelope
// ciphertexts plus everything needed to select and audit it without ever
// holding plaintext in memory longer than one decrypt call.
type Handle struct {
	KeyID           string       `json:"key_id"`
	Owner           string       `json:"owner"`
	Provider        ProviderKind `json:"provider"`
	Venue           string       `json:"venue,omitempty"` // set when Provider == ProviderExchange
	Ciphertext      string       `json:"ciphertext"`
	CiphertextExtra string       `json:"ciphertext_extra,omitempty"` // optional secret (exchange secret-key)
	Permissions     []string     `json:"permissions"`
	Active          bool         `json:"active"`
	ReadOnly        bool         `json:"read_only"`
	Testnet         bool         `json:"testnet"`
	Metadata        Metadata     `json:"metadata"`
	CreatedAt       time.Time    `json:"created_at"`
	LastUsed        *time.Time   `json:"last_used,omitempty"`
}

// Decrypted pairs a Handle with its one-shot decrypted plaintext.
type Decrypted struct {
	Handle    Handle
	Plaintext string
	Secret    string // optional, only populated when CiphertextExtra was set
}

// ExchangeCompatibility summarizes how well an owner's current exchange
// credentials support arbitrage and technical-analysis features, per
// user_exchange_api.rs::check_exchange_compatibility.
type ExchangeCompatibility struct {
	ArbitrageCompatible bool     `json:"arbitrage_compatible"`
	TechnicalCompatible bool     `json:"technical_compatible"`
	CompatibilityScore  float64  `json:"compatibility_score"`
	SupportedFeatures   []string `json:"supported_features"`
	MissingFeatures     []string `json:"missing_features"`
}
