package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// --- Analyst Model Prompts ---
//
// These are fixed constants owned by the analyzer, not configuration. The
// system instruction pins the assistant to JSON-only output; the user prompt
// restates the exact schema so a smaller model cannot drift from it.

const AnalystSystemPrompt = "Você é um Agente Jurídico especializado em análise de documentos processuais brasileiros. " +
	"Sua tarefa é classificar o documento, resumi-lo e identificar prazos processuais. " +
	"Responda APENAS com um objeto JSON válido, sem nenhum texto adicional."

const analystUserPromptTemplate = `Analise o texto jurídico abaixo.

Retorne um único objeto JSON com exatamente estes campos:
{
  "tipo_documento": "string",
  "resumo": "string",
  "tem_prazo": boolean,
  "dias_prazo": number|null,
  "urgencia": "Alta"|"Média"|"Baixa",
  "recomendacao": "string"
}

"dias_prazo" é o número de dias corridos a partir de hoje até o prazo, ou null se "tem_prazo" for false.

Texto:
%s`

// VertexClient holds the pre-configured analyst model.
type VertexClient struct {
	AnalystModel *genai.GenerativeModel
	baseClient   *genai.Client
}

// NewVertexClient creates a client with the analyst model configured for
// deterministic structured extraction.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	analystModel := baseClient.GenerativeModel(modelName)
	analystModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(AnalystSystemPrompt)},
	}
	analystModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output. This is a critical setting for this model.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.1), // extraction task, not generation
	}
	// Legal documents routinely describe crimes and violence; the default
	// thresholds would block legitimate case files.
	analystModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		AnalystModel: analystModel,
		baseClient:   baseClient,
	}, nil
}

// Analyze sends the windowed document text to the analyst model and returns
// the raw JSON string it produced. An empty candidate list or empty text part
// is an error; malformed JSON is not judged here.
func (c *VertexClient) Analyze(ctx context.Context, windowedText string) (string, error) {
	prompt := genai.Text(fmt.Sprintf(analystUserPromptTemplate, windowedText))

	resp, err := c.AnalystModel.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate analysis from gemini: %w", err)
	}

	raw := extractTextContent(resp)
	if raw == "" {
		return "", fmt.Errorf("gemini returned an empty response instead of JSON")
	}
	return raw, nil
}

// extractTextContent robustly gets the raw text content from the model response.
func extractTextContent(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	// The model is configured to return JSON, so we expect a single text part.
	if txt, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
		// Clean potential markdown fences just in case
		clean := strings.TrimSpace(string(txt))
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(clean, "```")
		return strings.TrimSpace(clean)
	}
	return ""
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
