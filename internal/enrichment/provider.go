package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/vault"
)

// analysisRequest is the provider-agnostic shape the coordinator builds;
// dispatch translates it into each provider's own request schema.
type analysisRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// analysisResponse is the provider-agnostic, already-extracted shape every
// dispatch path produces, regardless of the wire format it was parsed from.
type analysisResponse struct {
	Analysis        string
	Confidence      *float64
	Recommendations []string
	RiskScore       *float64
	TimingScore     *float64
	MarketCondition *float64
}

const defaultTimeout = 30 * time.Second

// dispatch invokes cred's provider with req, per §4.7's per-provider
// request schema: OpenAI POSTs /v1/chat/completions with bearer auth and a
// [system, user] message pair; Anthropic POSTs /v1/messages with
// x-api-key and anthropic-version; Custom POSTs the configured base_url
// with the credential's metadata headers and bearer auth.
func dispatch(ctx context.Context, httpClient *http.Client, cred vault.Decrypted, req analysisRequest) (analysisResponse, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	switch cred.Handle.Provider {
	case vault.ProviderOpenAI:
		return dispatchOpenAI(ctx, httpClient, cred, req)
	case vault.ProviderAnthropic:
		return dispatchAnthropic(ctx, httpClient, cred, req)
	case vault.ProviderCustom:
		return dispatchCustom(ctx, httpClient, cred, req)
	default:
		return analysisResponse{}, apperrors.Newf(apperrors.KindValidation, "provider %s cannot serve AI enrichment", cred.Handle.Provider)
	}
}

func openAIBaseURL(cred vault.Decrypted) string {
	if cred.Handle.Metadata.BaseURL != "" {
		return cred.Handle.Metadata.BaseURL
	}
	return "https://api.openai.com"
}

func dispatchOpenAI(ctx context.Context, httpClient *http.Client, cred vault.Decrypted, req analysisRequest) (analysisResponse, error) {
	model := cred.Handle.Metadata.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	payload := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are an expert cryptocurrency trading analyst. Analyze the provided market data and provide insights for arbitrage opportunities."},
			{"role": "user", "content": req.Prompt},
		},
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}

	body, err := postJSON(ctx, httpClient, openAIBaseURL(cred)+"/v1/chat/completions", payload, map[string]string{
		"Authorization": "Bearer " + cred.Plaintext,
	})
	if err != nil {
		return analysisResponse{}, err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return analysisResponse{}, apperrors.Wrap(apperrors.KindParse, err, "parse openai response")
	}
	analysis := "No response"
	if len(parsed.Choices) > 0 {
		analysis = parsed.Choices[0].Message.Content
	}
	return extractFreeText(analysis), nil
}

func dispatchAnthropic(ctx context.Context, httpClient *http.Client, cred vault.Decrypted, req analysisRequest) (analysisResponse, error) {
	model := cred.Handle.Metadata.Model
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	baseURL := cred.Handle.Metadata.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	payload := map[string]interface{}{
		"model":      model,
		"max_tokens": req.MaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}

	body, err := postJSON(ctx, httpClient, baseURL+"/v1/messages", payload, map[string]string{
		"x-api-key":         cred.Plaintext,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return analysisResponse{}, err
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return analysisResponse{}, apperrors.Wrap(apperrors.KindParse, err, "parse anthropic response")
	}
	analysis := "No response"
	if len(parsed.Content) > 0 {
		analysis = parsed.Content[0].Text
	}
	return extractFreeText(analysis), nil
}

func dispatchCustom(ctx context.Context, httpClient *http.Client, cred vault.Decrypted, req analysisRequest) (analysisResponse, error) {
	if cred.Handle.Metadata.BaseURL == "" {
		return analysisResponse{}, apperrors.New(apperrors.KindConfiguration, "custom AI provider requires base_url")
	}
	payload := map[string]interface{}{
		"prompt":      req.Prompt,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + cred.Plaintext}
	for k, v := range cred.Handle.Metadata.Headers {
		headers[k] = v
	}

	body, err := postJSON(ctx, httpClient, cred.Handle.Metadata.BaseURL, payload, headers)
	if err != nil {
		return analysisResponse{}, err
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return analysisResponse{}, apperrors.Wrap(apperrors.KindParse, err, "parse custom provider response")
	}

	analysis := firstString(parsed, "response", "text", "analysis", "content")
	resp := extractFreeText(analysis)
	if c, ok := parsed["confidence"].(float64); ok {
		resp.Confidence = &c
	}
	if rs, ok := parsed["risk_score"].(float64); ok {
		resp.RiskScore = &rs
	}
	if ts, ok := parsed["timing_score"].(float64); ok {
		resp.TimingScore = &ts
	}
	if recs, ok := parsed["recommendations"]; ok {
		resp.Recommendations = parseRecommendations(recs)
	}
	return resp, nil
}

func postJSON(ctx context.Context, httpClient *http.Client, url string, payload interface{}, headers map[string]string) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "marshal provider request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "build provider request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindNetwork, err, "provider request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindNetwork, err, "read provider response body")
	}
	if resp.StatusCode >= 300 {
		return nil, apperrors.Newf(apperrors.KindAPI, "provider returned HTTP %d: %s", resp.StatusCode, truncate(body, 256))
	}
	return body, nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return "No response"
}

func parseRecommendations(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + fmt.Sprintf("...(%d bytes)", len(b)-n)
}
