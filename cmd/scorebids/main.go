// Command scorebids runs the full scoring pipeline over a criteria set and
// a file of evaluator scores, printing the ranked outcome.
//
// Usage:
//
//	scorebids -criteria criteria.yaml -scores scores.json [-config engine.yaml] [-consensus VOTING] [-json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/procurelane/evalengine/sdk/evalengine"
)

func main() {
	var (
		criteriaPath = flag.String("criteria", "", "Criteria set YAML file (required)")
		scoresPath   = flag.String("scores", "", "Submission scores JSON file (required)")
		configPath   = flag.String("config", "", "Engine configuration YAML file (optional)")
		method       = flag.String("consensus", "", "Consensus method override: TRIMMED_MEAN, VOTING, or AVERAGING")
		jsonOut      = flag.Bool("json", false, "Emit the full result as JSON instead of a table")
	)
	flag.Parse()

	if *criteriaPath == "" || *scoresPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	config := evalengine.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to read engine config: %v", err)
		}
		config, err = evalengine.LoadConfig(data)
		if err != nil {
			log.Fatalf("Failed to load engine config: %v", err)
		}
	}

	criteriaData, err := os.ReadFile(*criteriaPath)
	if err != nil {
		log.Fatalf("Failed to read criteria set: %v", err)
	}
	criteria, err := evalengine.LoadCriteriaSet(criteriaData)
	if err != nil {
		log.Fatalf("Failed to load criteria set: %v", err)
	}

	scoresData, err := os.ReadFile(*scoresPath)
	if err != nil {
		log.Fatalf("Failed to read scores: %v", err)
	}
	var submissions []evalengine.SubmissionInput
	if err := json.Unmarshal(scoresData, &submissions); err != nil {
		log.Fatalf("Failed to parse scores: %v", err)
	}

	engine, err := evalengine.New(config)
	if err != nil {
		log.Fatalf("Failed to construct engine: %v", err)
	}

	result, err := engine.ScoreEvaluation(context.Background(), evalengine.EvaluationInput{
		Criteria:        criteria,
		Submissions:     submissions,
		ConsensusMethod: evalengine.ConsensusMethod(*method),
	})
	if err != nil {
		log.Fatalf("Scoring failed: %v", err)
	}

	if *jsonOut {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("Criteria set: %s\n", criteria.Set.ID)
	fmt.Printf("Submissions:  %d\n\n", len(result.Evaluations))
	fmt.Printf("%-6s %-24s %-10s %-8s %-8s %s\n",
		"RANK", "SUBMISSION", "BASE", "BONUS", "FINAL", "STATUS")
	for _, eval := range result.Evaluations {
		rank := "-"
		if eval.Rank != nil {
			rank = fmt.Sprintf("%d", *eval.Rank)
		}
		status := string(eval.Status)
		if eval.DisqualificationReason != "" {
			status = fmt.Sprintf("%s (%s)", eval.Status, eval.DisqualificationReason)
		}
		fmt.Printf("%-6s %-24s %-10.2f %-8.2f %-8.2f %s\n",
			rank, eval.SubmissionID, eval.BaseScore, eval.PreferenceBonus, eval.FinalScore, status)
	}

	if len(result.ConsensusRecords) > 0 {
		fmt.Printf("\nConsensus records:\n")
		for _, record := range result.ConsensusRecords {
			fmt.Printf("- %s: method=%s final=%.2f stddev=%.2f dissenters=%v\n",
				record.SubmissionID, record.Method, record.FinalScore, record.StdDev, record.DissenterIDs)
		}
	}
}
