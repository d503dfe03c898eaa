package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/kv"
)

const compatCacheTTL = 3600 * time.Second

// Vault implements the Credential Vault contract: store/list/get_active/
// delete/mark_used, backed by an externalized KV store and a process-wide
// master secret.
type Vault struct {
	store        kv.Store
	masterSecret string
	maxAIKeys    int
	log          zerolog.Logger
}

// New creates a Vault. maxAIKeys bounds the number of AI-class handles
// (OpenAI/Anthropic/Custom) an owner may hold simultaneously.
func New(store kv.Store, masterSecret string, maxAIKeys int, log zerolog.Logger) *Vault {
	return &Vault{
		store:        store,
		masterSecret: masterSecret,
		maxAIKeys:    maxAIKeys,
		log:          log.With().Str("component", "vault").Logger(),
	}
}

func credKey(owner, keyID string) string { return fmt.Sprintf("cred/%s/%s", owner, keyID) }
func idxKey(owner string) string         { return fmt.Sprintf("idx/%s", owner) }
func compatKey(owner string) string      { return fmt.Sprintf("cache/compat/%s", owner) }

// StoreRequest carries everything needed to mint a new Handle.
type StoreRequest struct {
	Owner       string
	Provider    ProviderKind
	Venue       string // required when Provider == ProviderExchange
	Plaintext   string
	Secret      string // optional second secret (e.g. exchange secret-key)
	Metadata    Metadata
	Permissions []string
	ReadOnly    bool
	Testnet     bool
}

// Store encrypts and persists a new credential, enforcing the per-owner
// AI-key cap and the Custom-provider base_url requirement, and returns the
// new handle's key_id.
func (v *Vault) Store(ctx context.Context, req StoreRequest) (string, error) {
	if req.Owner == "" {
		return "", apperrors.New(apperrors.KindValidation, "owner is required")
	}
	if req.Provider == ProviderCustom && req.Metadata.BaseURL == "" {
		return "", apperrors.New(apperrors.KindConfiguration, "custom provider requires metadata.base_url")
	}
	if req.Provider == ProviderExchange && req.Venue == "" {
		return "", apperrors.New(apperrors.KindValidation, "exchange provider requires a venue")
	}
	if req.Metadata.DefaultLeverage != nil {
		lev := *req.Metadata.DefaultLeverage
		if lev < 1 || lev > 100 {
			return "", apperrors.Newf(apperrors.KindValidation, "default_leverage must be in [1,100], got %d", lev)
		}
	}

	if req.Provider.IsAIClass() {
		handles, err := v.List(ctx, req.Owner)
		if err != nil {
			return "", err
		}
		count := 0
		for _, h := range handles {
			if h.Provider.IsAIClass() {
				count++
			}
		}
		if count >= v.maxAIKeys {
			return "", apperrors.Newf(apperrors.KindValidation, "owner already holds %d AI-class credentials (max %d)", count, v.maxAIKeys)
		}
	}

	ciphertext, err := encryptString(v.masterSecret, req.Plaintext)
	if err != nil {
		return "", err
	}
	var ciphertextExtra string
	if req.Secret != "" {
		ciphertextExtra, err = encryptString(v.masterSecret, req.Secret)
		if err != nil {
			return "", err
		}
	}

	keyID := uuid.NewString()
	handle := Handle{
		KeyID:           keyID,
		Owner:           req.Owner,
		Provider:        req.Provider,
		Venue:           req.Venue,
		Ciphertext:      ciphertext,
		CiphertextExtra: ciphertextExtra,
		Permissions:     req.Permissions,
		Active:          true,
		ReadOnly:        req.ReadOnly,
		Testnet:         req.Testnet,
		Metadata:        req.Metadata,
		CreatedAt:       time.Now().UTC(),
	}

	raw, err := json.Marshal(handle)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "marshal handle")
	}
	if err := v.store.Set(ctx, credKey(req.Owner, keyID), raw, 0); err != nil {
		return "", apperrors.Wrap(apperrors.KindStorage, err, "put credential record")
	}

	if err := v.addToIndex(ctx, req.Owner, keyID); err != nil {
		// Roll back the orphaned record rather than leave a handle with no
		// index entry - readers tolerate dangling index entries but not
		// the reverse.
		_ = v.store.Delete(ctx, credKey(req.Owner, keyID))
		return "", err
	}

	v.log.Info().Str("owner", req.Owner).Str("key_id", keyID).Str("provider", string(req.Provider)).Msg("credential stored")
	return keyID, nil
}

// List returns all handles for owner, skipping dangling index entries
// (index entries whose underlying record has been removed) rather than
// failing the whole call.
func (v *Vault) List(ctx context.Context, owner string) ([]Handle, error) {
	ids, err := v.index(ctx, owner)
	if err != nil {
		return nil, err
	}

	handles := make([]Handle, 0, len(ids))
	for _, id := range ids {
		h, err := v.get(ctx, owner, id)
		if err != nil {
			if k, ok := apperrors.KindOf(err); ok && k == apperrors.KindNotFound {
				continue // dangling index entry, tolerated by readers
			}
			return nil, err
		}
		handles = append(handles, *h)
	}

	sort.Slice(handles, func(i, j int) bool { return handles[i].CreatedAt.Before(handles[j].CreatedAt) })
	return handles, nil
}

// GetActive returns the first active handle matching provider (and, for
// ProviderExchange, venue if non-empty), decrypted.
func (v *Vault) GetActive(ctx context.Context, owner string, provider ProviderKind, venue string) (*Decrypted, error) {
	handles, err := v.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	for _, h := range handles {
		if !h.Active || h.Provider != provider {
			continue
		}
		if provider == ProviderExchange && venue != "" && h.Venue != venue {
			continue
		}
		return v.decrypt(h)
	}
	return nil, apperrors.NotFound(fmt.Sprintf("active %s credential for owner %s", provider, owner))
}

// Delete removes the handle record, then its index entry, as two separate
// store writes (not atomic). If the index write fails, the index keeps a
// dangling entry, which List skips.
func (v *Vault) Delete(ctx context.Context, owner, keyID string) error {
	if _, err := v.get(ctx, owner, keyID); err != nil {
		return err
	}

	if err := v.store.Delete(ctx, credKey(owner, keyID)); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, err, "delete credential record")
	}
	return v.removeFromIndex(ctx, owner, keyID)
}

// MarkUsed stamps last_used on a handle.
func (v *Vault) MarkUsed(ctx context.Context, owner, keyID string) error {
	h, err := v.get(ctx, owner, keyID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	h.LastUsed = &now

	raw, err := json.Marshal(h)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marshal handle")
	}
	if err := v.store.Set(ctx, credKey(owner, keyID), raw, 0); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, err, "update last_used")
	}
	return nil
}

func (v *Vault) decrypt(h Handle) (*Decrypted, error) {
	plaintext, err := decryptString(v.masterSecret, h.Ciphertext)
	if err != nil {
		v.log.Error().Str("key_id", h.KeyID).Err(err).Msg("credential decryption failed")
		return nil, err
	}
	var secret string
	if h.CiphertextExtra != "" {
		secret, err = decryptString(v.masterSecret, h.CiphertextExtra)
		if err != nil {
			v.log.Error().Str("key_id", h.KeyID).Err(err).Msg("credential secret decryption failed")
			return nil, err
		}
	}
	return &Decrypted{Handle: h, Plaintext: plaintext, Secret: secret}, nil
}

func (v *Vault) get(ctx context.Context, owner, keyID string) (*Handle, error) {
	raw, found, err := v.store.Get(ctx, credKey(owner, keyID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, err, "get credential record")
	}
	if !found {
		return nil, apperrors.NotFound(keyID)
	}
	var h Handle
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "unmarshal handle")
	}
	return &h, nil
}

func (v *Vault) index(ctx context.Context, owner string) ([]string, error) {
	raw, found, err := v.store.Get(ctx, idxKey(owner))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, err, "get credential index")
	}
	if !found {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "unmarshal credential index")
	}
	return ids, nil
}

func (v *Vault) addToIndex(ctx context.Context, owner, keyID string) error {
	ids, err := v.index(ctx, owner)
	if err != nil {
		return err
	}
	ids = append(ids, keyID)
	return v.putIndex(ctx, owner, ids)
}

func (v *Vault) removeFromIndex(ctx context.Context, owner, keyID string) error {
	ids, err := v.index(ctx, owner)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != keyID {
			kept = append(kept, id)
		}
	}
	return v.putIndex(ctx, owner, kept)
}

func (v *Vault) putIndex(ctx context.Context, owner string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marshal credential index")
	}
	if err := v.store.Set(ctx, idxKey(owner), raw, 0); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, err, "put credential index")
	}
	return nil
}
