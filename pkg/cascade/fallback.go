package cascade

// DefaultFallback is tried when no remote cascade is available. It is
// deliberately long: free-tier backends fail often, and any healthy entry
// is enough to answer.
var DefaultFallback = []string{
	"google/gemini-2.0-flash-exp:free",
	"meta-llama/llama-3.3-70b-instruct:free",
	"deepseek/deepseek-chat-v3-0324:free",
	"deepseek/deepseek-r1:free",
	"qwen/qwen-2.5-72b-instruct:free",
	"mistralai/mistral-small-3.1-24b-instruct:free",
	"google/gemma-3-27b-it:free",
	"meta-llama/llama-4-maverick:free",
	"meta-llama/llama-4-scout:free",
	"nvidia/llama-3.1-nemotron-70b-instruct:free",
	"microsoft/phi-4-reasoning:free",
	"qwen/qwen3-32b:free",
	"mistralai/mistral-7b-instruct:free",
	"google/gemma-3-12b-it:free",
	"meta-llama/llama-3.2-3b-instruct:free",
	"huggingfaceh4/zephyr-7b-beta:free",
	"openchat/openchat-7b:free",
	"nousresearch/deephermes-3-llama-3-8b-preview:free",
}
