package llm_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/robbykap/github-dashboard/common/llm"
)

var _ = Describe("NewAgentClient", func() {
	It("defaults to the OpenAI provider", func() {
		client, err := llm.NewAgentClient(llm.Config{APIKey: "test-key"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-4o-mini"))
	})

	It("requires an API key", func() {
		_, err := llm.NewAgentClient(llm.Config{Provider: llm.ProviderOpenAI})
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown providers", func() {
		_, err := llm.NewAgentClient(llm.Config{Provider: "bedrock", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	It("creates an Anthropic client with its default model", func() {
		client, err := llm.NewAgentClient(llm.Config{Provider: llm.ProviderAnthropic, APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(ContainSubstring("claude"))
	})
})

var _ = Describe("ParseToolArguments", func() {
	type args struct {
		Title  string   `json:"title"`
		Labels []string `json:"labels"`
	}

	It("unmarshals well-formed arguments", func() {
		parsed, err := llm.ParseToolArguments[args](`{"title":"Login crash","labels":["auth"]}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Title).To(Equal("Login crash"))
		Expect(parsed.Labels).To(Equal([]string{"auth"}))
	})

	It("returns an error for malformed arguments", func() {
		_, err := llm.ParseToolArguments[args](`{"title":`)
		Expect(err).To(MatchError(ContainSubstring("parse tool arguments")))
	})

	It("leaves absent fields at their zero values", func() {
		parsed, err := llm.ParseToolArguments[args](`{}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Title).To(BeEmpty())
		Expect(parsed.Labels).To(BeNil())
	})
})

var _ = Describe("GenerateSchemaFrom", func() {
	type params struct {
		Title string `json:"title" jsonschema:"required,description=Concise issue title"`
		Kind  string `json:"kind,omitempty" jsonschema:"enum=bug,enum=feature"`
	}

	It("produces an inline schema with required fields and enums", func() {
		schema := llm.GenerateSchemaFrom(params{})

		data, err := json.Marshal(schema)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded["type"]).To(Equal("object"))
		Expect(decoded["required"]).To(ContainElement("title"))

		props := decoded["properties"].(map[string]any)
		kind := props["kind"].(map[string]any)
		Expect(kind["enum"]).To(ConsistOf("bug", "feature"))
	})
})

var _ = Describe("Temp", func() {
	It("returns a pointer to the given temperature", func() {
		Expect(*llm.Temp(0)).To(BeZero())
		Expect(*llm.Temp(0.7)).To(Equal(0.7))
	})
})
