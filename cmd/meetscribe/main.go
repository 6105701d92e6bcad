package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/joho/godotenv"
	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/lokutor-ai/meetscribe/pkg/capture"
	"github.com/lokutor-ai/meetscribe/pkg/meeting"
	"github.com/lokutor-ai/meetscribe/pkg/providers/asr"
	"github.com/lokutor-ai/meetscribe/pkg/providers/blob"
	llmProvider "github.com/lokutor-ai/meetscribe/pkg/providers/llm"
	"github.com/lokutor-ai/meetscribe/pkg/providers/store"
	"github.com/lokutor-ai/meetscribe/pkg/providers/tts"
	"github.com/lokutor-ai/meetscribe/pkg/providers/vector"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	meetURL := os.Getenv("MEET_URL")
	if meetURL == "" {
		log.Fatal("Error: MEET_URL must be set.")
	}
	guestName := envOrDefault("GUEST_NAME", "Bot Recorder")
	userID := envOrDefault("USER_ID", "anonymous")
	meetKey := envOrDefault("MEET_KEY", meetURL)
	budget := 300 * time.Second
	if s := os.Getenv("RECORDING_BUDGET_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			budget = time.Duration(n) * time.Second
		}
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if deepgramKey == "" {
		log.Fatal("Error: DEEPGRAM_API_KEY must be set.")
	}
	lokutorKey := os.Getenv("LOKUTOR_API_KEY")
	if lokutorKey == "" {
		log.Fatal("Error: LOKUTOR_API_KEY must be set.")
	}
	googleKey := os.Getenv("GOOGLE_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")

	llmProviderName := envOrDefault("LLM_PROVIDER", "google")
	var llm meeting.LLMProvider
	switch llmProviderName {
	case "anthropic":
		if anthropicKey == "" {
			log.Fatal("Error: ANTHROPIC_API_KEY must be set for anthropic LLM")
		}
		llm = llmProvider.NewAnthropicLLM(anthropicKey, "")
	case "openai":
		if openaiKey == "" {
			log.Fatal("Error: OPENAI_API_KEY must be set for openai LLM")
		}
		llm = llmProvider.NewOpenAILLM(openaiKey, "")
	case "google":
		fallthrough
	default:
		if googleKey == "" {
			log.Fatal("Error: GOOGLE_API_KEY must be set for google LLM")
		}
		llm = llmProvider.NewGoogleLLM(googleKey, "")
	}

	if googleKey == "" {
		log.Fatal("Error: GOOGLE_API_KEY must be set (embeddings always use Gemini)")
	}
	embedder := llmProvider.NewGoogleLLM(googleKey, "")

	asrClient := asr.NewClient(deepgramKey)
	ttsClient := tts.NewStreamClient(lokutorKey, "", "")

	var vectorStore meeting.VectorStore
	if osURL := os.Getenv("OPENSEARCH_URL"); osURL != "" {
		osClient, err := opensearch.NewClient(opensearch.Config{Addresses: []string{osURL}})
		if err != nil {
			log.Fatalf("Error: could not build opensearch client: %v", err)
		}
		vectorStore = vector.NewStore(osClient, envOrDefault("OPENSEARCH_INDEX", "meetscribe-meetings"))
	}

	var blobStore meeting.BlobStore
	bucket := os.Getenv("S3_BUCKET")
	if bucket != "" {
		sess := session.Must(session.NewSession(&aws.Config{
			Region: aws.String(envOrDefault("AWS_REGION", "us-east-1")),
		}))
		blobStore = blob.NewStore(bucket, sess)
	}

	meetingStore := store.NewJSONStore(envOrDefault("MEETING_STORE_DIR", "./meetings"))

	logger, err := meeting.NewProductionZapLogger()
	if err != nil {
		log.Fatalf("Error: could not build logger: %v", err)
	}

	orch := &capture.Orchestrator{
		ScratchRoot:   envOrDefault("SCRATCH_ROOT", "./scratch"),
		SinkName:      envOrDefault("PULSE_SINK_NAME", "meetscribe_sink"),
		AppNameFilter: envOrDefault("PULSE_APP_FILTER", "Chrome"),
		ASR:           asrClient,
		LLM:           llm,
		Embed:         embedder,
		TTS:           ttsClient,
		Vector:        vectorStore,
		Blob:          blobStore,
		Store:         meetingStore,
		Logger:        logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		cancel()
	}()

	record, err := orch.Run(ctx, meeting.JobInput{
		MeetURL:         meetURL,
		GuestName:       guestName,
		UserID:          userID,
		MeetKey:         meetKey,
		RecordingBudget: budget,
	})
	cancel()
	if err != nil {
		log.Fatalf("meeting capture job failed: %v", err)
	}

	fmt.Printf("meeting %s captured: %d merged segments, status=%s\n", record.MeetingID, len(record.Merged), record.Status)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
