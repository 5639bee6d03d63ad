package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dkrasnove/faunaguess/internal/config"
	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/dkrasnove/faunaguess/internal/extract"
	"github.com/dkrasnove/faunaguess/internal/game"
	"github.com/dkrasnove/faunaguess/internal/knowledge"
	"github.com/dkrasnove/faunaguess/internal/learning"
	"github.com/dkrasnove/faunaguess/internal/persist"
	"github.com/dkrasnove/faunaguess/internal/seed"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var playFlags struct {
	dataFile string
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a round: think of an animal and answer the questions",
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playFlags.dataFile, "data", "", "Knowledge file path (default from DATA_FILE)")
}

func buildService(ctx context.Context, dataFile string) (*game.Service, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	logger := newLogger()

	if dataFile == "" {
		dataFile = config.DataFile()
	}
	persister := persist.NewFileStore(dataFile, logger)

	extractor, err := extract.NewExtractor(config.ExtractorProvider())
	if err != nil {
		return nil, err
	}

	opts := game.Options{
		ConfidenceThreshold:   config.ConfidenceThreshold(),
		MinRelevantConfidence: config.MinRelevantConfidence(),
		MaxQuestions:          config.MaxQuestions(),
	}
	svc := game.New(knowledge.NewStore(), persister, extractor, opts, logger)

	seedData := seed.Default()
	if p := config.SeedFile(); p != "" {
		if seedData, err = seed.LoadFile(p); err != nil {
			return nil, err
		}
	}
	if err := svc.Init(ctx, seedData); err != nil {
		return nil, err
	}
	return svc, nil
}

func runPlay(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := buildService(ctx, playFlags.dataFile)
	if err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()
	svc.SetQuestionProvider(&promptProvider{in: in, out: out})

	fmt.Fprintf(out, "Think of an animal and I'll try to guess it.\n")
	fmt.Fprintf(out, "Answer with yes, no, or maybe.\n\n")

	session := svc.StartSession()
	questionNum := 0

	for {
		guess, err := svc.Guess(session.ID)
		if errors.Is(err, domain.ErrNoCandidates) {
			fmt.Fprintf(out, "\nNothing I know matches your answers. Help me learn!\n")
			return learnFlow(ctx, svc, session.ID, in, out)
		}
		if err != nil {
			return err
		}

		if guess.Recommend {
			fmt.Fprintf(out, "\nI'm %.0f%% confident...\n", guess.Confidence*100)
			if promptYesNo(in, out, fmt.Sprintf("Is your animal a %s?", guess.Animal.Name)) {
				_, err := svc.Finish(ctx, session.ID, learning.Outcome{Kind: learning.OutcomeCorrect})
				if err != nil && !errors.Is(err, persist.ErrPersistenceFailure) {
					return err
				}
				reportSaveError(out, err)
				fmt.Fprintf(out, "I guessed it!\n")
				return nil
			}
			fmt.Fprintf(out, "\nI was wrong. Help me learn!\n")
			return learnFlow(ctx, svc, session.ID, in, out)
		}

		q, err := svc.NextQuestion(session.ID)
		if err != nil {
			// Exhausted questions force a guess on the next iteration; any
			// other selector signal means the learning path.
			if errors.Is(err, domain.ErrQuestionsExhausted) {
				continue
			}
			if errors.Is(err, domain.ErrNoCandidates) {
				fmt.Fprintf(out, "\nNothing I know matches your answers. Help me learn!\n")
				return learnFlow(ctx, svc, session.ID, in, out)
			}
			return err
		}

		questionNum++
		answer := promptAnswer(in, out, fmt.Sprintf("Question %d: %s", questionNum, q.Text))
		if err := svc.SubmitAnswer(session.ID, q.ID, answer); err != nil {
			return err
		}
	}
}

// learnFlow asks for the true animal and an optional description, then
// reconciles the round.
func learnFlow(ctx context.Context, svc *game.Service, sessionID uuid.UUID, in *bufio.Reader, out io.Writer) error {
	name := promptLine(in, out, "What animal were you thinking of? ")
	if name == "" {
		svc.Abandon(sessionID)
		fmt.Fprintf(out, "Never mind, nothing learned.\n")
		return nil
	}
	description := promptLine(in, out, "Describe it briefly (optional): ")

	outcome := learning.Outcome{
		Kind:        learning.OutcomeKnown,
		AnimalName:  name,
		Description: description,
	}
	if _, known := svc.AnimalByName(name); !known {
		outcome.Kind = learning.OutcomeNew
	}

	result, err := svc.Finish(ctx, sessionID, outcome)
	reportSaveError(out, err)
	if result == nil {
		return err
	}

	fmt.Fprintf(out, "Learned about %s", name)
	if result.AnswersLearned > 0 {
		fmt.Fprintf(out, " (%d new answers)", result.AnswersLearned)
	}
	fmt.Fprintf(out, ". This will help me in future games.\n")
	for _, c := range result.Conflicts {
		fmt.Fprintf(out, "Note: your answer %q contradicts what I have recorded (%q); keeping my records.\n", c.Given, c.Stored)
	}
	return nil
}

// promptProvider asks the player for a question that tells two animals apart.
type promptProvider struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *promptProvider) Distinguish(_ context.Context, subject, other domain.Animal) (domain.Distinction, error) {
	fmt.Fprintf(p.out, "\nI can't tell a %s from a %s yet.\n", subject.Name, other.Name)
	text := promptLine(p.in, p.out, "Give me a yes/no question that separates them: ")
	if text == "" {
		return domain.Distinction{}, errors.New("no question provided")
	}
	subjectAns := promptAnswer(p.in, p.out, fmt.Sprintf("For a %s, the answer is?", subject.Name))
	otherAns := promptAnswer(p.in, p.out, fmt.Sprintf("For a %s, the answer is?", other.Name))
	return domain.Distinction{
		QuestionText:  text,
		SubjectAnswer: subjectAns,
		OtherAnswer:   otherAns,
	}, nil
}

func promptLine(in *bufio.Reader, out io.Writer, prompt string) string {
	fmt.Fprint(out, prompt)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptAnswer(in *bufio.Reader, out io.Writer, prompt string) domain.Answer {
	for {
		raw := strings.ToLower(promptLine(in, out, prompt+" "))
		answer, err := domain.ParseAnswer(raw)
		if err == nil {
			return answer
		}
		fmt.Fprintf(out, "Please answer yes, no, or maybe.\n")
	}
}

func promptYesNo(in *bufio.Reader, out io.Writer, prompt string) bool {
	for {
		switch strings.ToLower(promptLine(in, out, prompt+" (yes/no): ")) {
		case "yes", "y":
			return true
		case "no", "n":
			return false
		}
		fmt.Fprintf(out, "Please answer yes or no.\n")
	}
}

func reportSaveError(out io.Writer, err error) {
	if err != nil && errors.Is(err, persist.ErrPersistenceFailure) {
		fmt.Fprintf(out, "Warning: could not save what I learned: %v\n", err)
	}
}
