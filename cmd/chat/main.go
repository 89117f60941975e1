// Command chat is a terminal client that drives the orchestrator directly
// with an in-process conversation state.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"zaidev/internal/capabilities"
	"zaidev/internal/config"
	"zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/models/generation"
	"zaidev/internal/domain/services"
	genSvc "zaidev/internal/domain/services/generation"
	"zaidev/internal/render"
	chatService "zaidev/internal/service/chat"
	genService "zaidev/internal/service/generation"

	"github.com/joho/godotenv"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
)

const helpText = `Commands:
  /decompose <task>             break a task into steps
  /image <path> <instruction>   edit a local image
  /speak [file]                 read the last reply aloud into a file
  /save <file>                  write the transcript as HTML
  /reset                        start over
  /quit                         exit
Anything else is sent as a message.`

type CLI struct {
	orchestrator services.Orchestrator
	generator    genSvc.Generator
	state        chat.State
	greeting     bool
	inline       bool
	out          io.Writer
}

func main() {
	_ = godotenv.Load()

	fake := flag.Bool("fake", false, "use the offline fake backends")
	inline := flag.Bool("inline-images", false, "print images as full data URIs")
	flag.Parse()

	cfg := config.Load()
	if *fake {
		cfg.TextProvider, cfg.ImageProvider, cfg.SpeechProvider = "fake", "fake", "fake"
	}
	// keep the transcript readable; logs go to stderr
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	cfg.LogFormat = "text"
	logger := config.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	stack, err := genService.Setup(ctx, cfg, registry, logger)
	if err != nil {
		log.Fatalf("Failed to setup generation backends: %v", err)
	}

	cli := &CLI{
		orchestrator: chatService.NewOrchestrator(stack.Client, chatService.Config{
			Suggestions:           cfg.Suggestions,
			PreserveRejectedInput: cfg.PreserveRejectedInput,
		}, logger),
		generator: stack.Client,
		greeting:  cfg.Greeting,
		inline:    *inline,
		out:       os.Stdout,
	}
	cli.reset()
	fmt.Fprint(cli.out, render.Markdown(cli.state, cli.options()))
	fmt.Fprintln(cli.out, colorYellow+"Type /help for commands."+colorReset)

	cli.run(ctx, os.Stdin)
}

func (c *CLI) options() render.Options {
	return render.Options{InlineImages: c.inline}
}

func (c *CLI) reset() {
	c.state = chat.NewState()
	if c.greeting {
		c.state = chat.NewStateWithGreeting()
	}
}

func (c *CLI) run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), config.MaxRequestBodyBytes)

	for {
		fmt.Fprint(c.out, colorCyan+"> "+colorReset)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := c.dispatch(ctx, line); quit {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// dispatch handles one input line and reports whether to exit.
func (c *CLI) dispatch(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(c.out, helpText)
	case "/reset":
		c.reset()
		fmt.Fprint(c.out, render.Markdown(c.state, c.options()))
	case "/decompose":
		c.turn(ctx, c.orchestrator.Decompose, chat.Submission{Text: arg})
	case "/image":
		path, instruction, _ := strings.Cut(arg, " ")
		uri, err := loadImage(path)
		if err != nil {
			c.printError(err.Error())
			return false
		}
		c.turn(ctx, c.orchestrator.Handle, chat.Submission{Text: strings.TrimSpace(instruction), ImagePayload: uri})
	case "/speak":
		c.speak(ctx, arg)
	case "/save":
		c.save(arg)
	default:
		c.turn(ctx, c.orchestrator.Handle, chat.Submission{Text: line})
	}
	return false
}

type turnFn func(context.Context, chat.State, chat.Submission) (chat.State, error)

// turn runs one submission and prints only what it appended.
func (c *CLI) turn(ctx context.Context, run turnFn, sub chat.Submission) {
	prev := c.state
	next, err := run(ctx, prev, sub)
	if err != nil && errors.Is(err, context.Canceled) {
		return
	}
	c.state = next

	delta := chat.State{Messages: next.Messages[prev.Len():]}
	fmt.Fprint(c.out, render.Markdown(delta, c.options()))
	if next.Error != "" {
		c.printError(next.Error)
	}
}

func (c *CLI) speak(ctx context.Context, path string) {
	var last chat.Message
	found := false
	for i := c.state.Len() - 1; i >= 0; i-- {
		if m := c.state.Messages[i]; m.Role == chat.RoleAssistant {
			last, found = m, true
			break
		}
	}
	if !found {
		c.printError("nothing to read aloud")
		return
	}

	out, err := c.generator.TextToSpeech(ctx, generation.SpeechInput{Text: last.Content})
	if err != nil {
		c.printError("AI Error: " + err.Error())
		return
	}
	audio, err := generation.ParseDataURI(out.AudioDataURI)
	if err != nil {
		c.printError(err.Error())
		return
	}
	if path == "" {
		path = "zaidev-" + last.ID + audioExtension(audio.MIMEType)
	}
	if err := os.WriteFile(path, audio.Data, 0644); err != nil {
		c.printError(err.Error())
		return
	}
	fmt.Fprintf(c.out, "wrote %s (%d bytes)\n", path, len(audio.Data))
}

func (c *CLI) save(path string) {
	if path == "" {
		c.printError("usage: /save <file>")
		return
	}
	if err := os.WriteFile(path, []byte(render.HTML(c.state)), 0644); err != nil {
		c.printError(err.Error())
		return
	}
	fmt.Fprintf(c.out, "wrote %s\n", path)
}

func (c *CLI) printError(msg string) {
	fmt.Fprintln(c.out, colorRed+"Error: "+msg+colorReset)
}

// loadImage reads a local file into a data URI.
func loadImage(path string) (string, error) {
	if path == "" {
		return "", errors.New("usage: /image <path> <instruction>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	media := generation.Media{MIMEType: http.DetectContentType(data), Data: data}
	if !media.IsImage() {
		return "", fmt.Errorf("%s is not an image (%s)", path, media.MIMEType)
	}
	return media.DataURI(), nil
}

func audioExtension(mime string) string {
	switch mime {
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ".audio"
	}
}
