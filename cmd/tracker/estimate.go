package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
)

var (
	doseGlucose  float64
	doseCarbs    float64
	doseExercise float64
	doseCurrent  float64
	doseWeight   float64
	doseJSON     bool

	projGlucose   float64
	projInsulin   float64
	projCarbs     float64
	projExercise  float64
	projIntensity float64
	projClamp     bool
	projJSON      bool
)

var doseCmd = &cobra.Command{
	Use:   "dose",
	Short: "Suggest an insulin dose",
	Long: `Suggest an insulin dose with the local formula.

Examples:
  tracker dose --glucose 180 --carbs 45
  tracker dose --glucose 150 --carbs 60 --exercise 30 --current 1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := estimator.InsulinRequest{
			CurrentGlucose:       doseGlucose,
			CarbIntake:           doseCarbs,
			ExerciseMinutes:      doseExercise,
			CurrentInsulinDosage: doseCurrent,
		}
		if cmd.Flags().Changed("weight") {
			req.BodyWeightKg = &doseWeight
		}
		res := estimator.NewLocalFormula(estimator.Options{}).EstimateInsulinDose(req)
		if doseJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		renderDose(cmd.OutOrStdout(), res)
		return nil
	},
}

var glucoseCmd = &cobra.Command{
	Use:   "glucose",
	Short: "Project blood glucose",
	Long: `Project blood glucose after insulin, carbs and exercise.

Examples:
  tracker glucose --glucose 150 --insulin 2 --carbs 30
  tracker glucose --glucose 110 --exercise 45 --intensity 1.5 --clamp`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		est := estimator.NewLocalFormula(estimator.Options{ClampToPhysiologicalRange: projClamp})
		res := est.EstimateGlucose(estimator.GlucoseRequest{
			CurrentGlucose:          projGlucose,
			InsulinDose:             projInsulin,
			CarbIntake:              projCarbs,
			ExerciseMinutes:         projExercise,
			ExerciseIntensityFactor: projIntensity,
		})
		if projJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		renderGlucose(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	doseCmd.Flags().Float64Var(&doseGlucose, "glucose", 0, "current blood glucose (mg/dL)")
	doseCmd.Flags().Float64Var(&doseCarbs, "carbs", 0, "carbohydrates to eat (g)")
	doseCmd.Flags().Float64Var(&doseExercise, "exercise", 0, "planned exercise (minutes)")
	doseCmd.Flags().Float64Var(&doseCurrent, "current", 0, "insulin already on board (units)")
	doseCmd.Flags().Float64Var(&doseWeight, "weight", 0, "body weight (kg), not used by the formula")
	doseCmd.Flags().BoolVar(&doseJSON, "json", false, "print the result as JSON")

	glucoseCmd.Flags().Float64Var(&projGlucose, "glucose", 0, "current blood glucose (mg/dL)")
	glucoseCmd.Flags().Float64Var(&projInsulin, "insulin", 0, "insulin dose (units)")
	glucoseCmd.Flags().Float64Var(&projCarbs, "carbs", 0, "carbohydrates (g)")
	glucoseCmd.Flags().Float64Var(&projExercise, "exercise", 0, "exercise (minutes)")
	glucoseCmd.Flags().Float64Var(&projIntensity, "intensity", 1, "exercise intensity multiplier")
	glucoseCmd.Flags().BoolVar(&projClamp, "clamp", false, "limit the projection to 70-300 mg/dL")
	glucoseCmd.Flags().BoolVar(&projJSON, "json", false, "print the result as JSON")

	rootCmd.AddCommand(doseCmd, glucoseCmd)
}

func renderDose(w io.Writer, res estimator.InsulinResult) {
	faint := color.New(color.Faint)

	color.New(color.FgGreen, color.Bold).Fprintf(w, "💉 %g units\n", res.RecommendedDosage)
	fmt.Fprintf(w, "  current glucose     %s\n", res.Details.CurrentGlucose)
	fmt.Fprintf(w, "  above target        %s\n", res.Details.GlucoseDifference)
	fmt.Fprintf(w, "  carb effect         %s\n", res.Details.CarbEffect)
	fmt.Fprintf(w, "  exercise reduction  %s\n", res.Details.ExerciseReduction)
	faint.Fprintf(w, "  %s, confidence %g\n", res.Method, res.Confidence)
}

func renderGlucose(w io.Writer, res estimator.GlucoseResult) {
	headline := color.New(color.FgGreen, color.Bold)
	if res.PredictedGlucose < estimator.MinPhysiologicalGlucose || res.PredictedGlucose > estimator.MaxPhysiologicalGlucose {
		headline = color.New(color.FgRed, color.Bold)
	}

	headline.Fprintf(w, "📊 %d mg/dL\n", res.PredictedGlucose)
	fmt.Fprintf(w, "  insulin effect   %s\n", res.Details.InsulinEffect)
	fmt.Fprintf(w, "  carb effect      %s\n", res.Details.CarbEffect)
	fmt.Fprintf(w, "  exercise effect  %s\n", res.Details.ExerciseEffect)
	if res.Clamped {
		color.New(color.FgYellow).Fprintln(w, "  clamped to the physiological range")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
