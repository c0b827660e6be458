package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/agritrack/irriplan/internal/config"
	"github.com/agritrack/irriplan/internal/field"
	"github.com/agritrack/irriplan/internal/manager"
	"github.com/agritrack/irriplan/internal/report"
	"github.com/agritrack/irriplan/internal/storage"
	"github.com/agritrack/irriplan/internal/storage/sqlite"
)

func main() {
	cmd := "run"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "run":
		os.Exit(runApp(args))
	case "validate":
		os.Exit(runValidate(args))
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: irriplan [command] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run                      Start the interactive scheduling session (default)")
	fmt.Println("  validate --dir <path>    Validate field definition YAML files in a directory")
	fmt.Println()
}

func runValidate(args []string) int {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateDir := validateCmd.String("dir", "", "directory containing field definition YAML files")
	schemaFlag := validateCmd.String("schema", "", "path to the field definition JSON schema")
	validateCmd.Parse(args)

	if *validateDir == "" {
		fmt.Fprintln(os.Stderr, "Error: --dir flag is required")
		validateCmd.Usage()
		return 1
	}

	schemaPath := *schemaFlag
	if schemaPath == "" {
		schemaPath = findSchemaFile()
	}
	if schemaPath == "" {
		fmt.Fprintln(os.Stderr, "Error: could not find schemas/fields_v1.json")
		return 1
	}

	validator, err := field.NewValidator(schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize validator: %v\n", err)
		return 1
	}

	validationErrors := validator.ValidateDirectory(*validateDir)
	if len(validationErrors) == 0 {
		fmt.Println("✓ All field definition files are valid")
		return 0
	}

	// Group errors by file
	errorsByFile := make(map[string][]field.ValidationError)
	for _, verr := range validationErrors {
		errorsByFile[verr.File] = append(errorsByFile[verr.File], verr)
	}

	var files []string
	for file := range errorsByFile {
		files = append(files, file)
	}
	sort.Strings(files)

	fmt.Fprintf(os.Stderr, "✗ Validation failed with %d error(s):\n\n", len(validationErrors))
	for _, file := range files {
		for _, verr := range errorsByFile[file] {
			if verr.Field != "" {
				fmt.Fprintf(os.Stderr, "%s: %s: %s\n", filepath.Base(verr.File), verr.Field, verr.Message)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %s\n", filepath.Base(verr.File), verr.Message)
			}
		}
	}

	return 1
}

// findSchemaFile looks for the schema file in common locations
func findSchemaFile() string {
	candidates := []string{
		"schemas/fields_v1.json",
		"../schemas/fields_v1.json",
		"../../schemas/fields_v1.json",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func runApp(args []string) int {
	cfg := config.Load()

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	dbPath := runCmd.String("db", cfg.DBPath, "path to the SQLite database file")
	fieldsDir := runCmd.String("fields-dir", cfg.FieldsDir, "directory of field definition files used to seed an empty database")
	debug := runCmd.Bool("debug", cfg.Debug, "turn on debugging output")
	runCmd.Parse(args)

	cfg.DBPath = *dbPath
	cfg.FieldsDir = *fieldsDir
	cfg.Debug = *debug
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	// Set up our logger
	var zapLogger *zap.Logger
	var err error
	if cfg.Debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		return 1
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	store, err := sqlite.NewStore(cfg.DBPath)
	if err != nil {
		log.Errorf("error opening database %s: %v", cfg.DBPath, err)
		return 1
	}
	defer store.Close()

	mgr := manager.New(store, log)
	if err := mgr.EnsureFields(cfg.FieldsDir, cfg.SchemaPath); err != nil {
		log.Errorf("error seeding fields: %v", err)
		return 1
	}

	app := &consoleApp{
		mgr:     mgr,
		store:   store,
		builder: report.NewBuilder(store),
		in:      bufio.NewScanner(os.Stdin),
	}
	return app.run()
}

// consoleApp drives the interactive menu loop
type consoleApp struct {
	mgr     *manager.Manager
	store   storage.Store
	builder *report.Builder
	in      *bufio.Scanner
}

func (a *consoleApp) run() int {
	fmt.Println("Welcome to the Irrigation Scheduling Application!")

	for {
		a.displayMenu()
		switch a.prompt("Select an option (1-7): ") {
		case "1":
			a.viewFields()
		case "2":
			a.addField()
		case "3":
			a.editField()
		case "4":
			a.deleteField()
		case "5":
			a.enterWeatherData()
		case "6":
			a.viewEtcTable()
		case "7":
			fmt.Println("\nThank you for using the Irrigation Scheduling Application. Goodbye!")
			return 0
		default:
			fmt.Println("\nInvalid option. Please select 1-7.")
		}
	}
}

func (a *consoleApp) displayMenu() {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("IRRIGATION SCHEDULING APPLICATION")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("\nMain Menu:")
	fmt.Println("1. View Fields")
	fmt.Println("2. Add Field")
	fmt.Println("3. Edit Field")
	fmt.Println("4. Delete Field")
	fmt.Println("5. Enter Weather Data (ET0)")
	fmt.Println("6. View ETc Table")
	fmt.Println("7. Exit")
	fmt.Println()
}

// prompt reads one trimmed line of input
func (a *consoleApp) prompt(label string) string {
	fmt.Print(label)
	if !a.in.Scan() {
		// Stdin closed; treat as exit
		return "7"
	}
	return strings.TrimSpace(a.in.Text())
}

func (a *consoleApp) viewFields() {
	fields, err := a.mgr.ListFields()
	if err != nil {
		reportError(err)
		return
	}
	if len(fields) == 0 {
		fmt.Println("\nError: No fields provided. Please enter at least one field.")
		return
	}

	fmt.Println("\n=== Fields ===")
	fmt.Println(report.FormatFieldTable(fields))
}

func (a *consoleApp) addField() {
	fmt.Println("\n=== Add Field ===")

	name := a.prompt("Enter field name: ")
	cropFactor := a.promptCropFactor("Enter crop factor (Kc): ", nil)
	week := a.promptFertilizerWeek("Enter fertilizer week: ", nil)

	if err := a.mgr.AddField(name, cropFactor, week); err != nil {
		reportError(err)
		return
	}
	fmt.Printf("\nSuccessfully added field '%s'.\n", name)
}

func (a *consoleApp) editField() {
	fields, err := a.mgr.ListFields()
	if err != nil {
		reportError(err)
		return
	}
	if len(fields) == 0 {
		fmt.Println("\nError: No fields available to edit.")
		return
	}

	fmt.Println("\n=== Edit Field ===")
	fmt.Println(report.FormatFieldTable(fields))

	name := a.prompt("\nEnter field name to edit: ")
	current, err := a.store.GetField(name)
	if err != nil {
		reportError(err)
		return
	}
	if current == nil {
		fmt.Printf("Error: Field '%s' not found.\n", name)
		return
	}

	fmt.Printf("\nCurrent values for '%s':\n", name)
	fmt.Printf("  Crop Factor: %g\n", current.CropFactor)
	fmt.Printf("  Fertilizer Week: %d\n", current.FertilizerWeek)

	cropFactor := a.promptCropFactor("\nEnter new crop factor (press Enter to keep current): ", &current.CropFactor)
	week := a.promptFertilizerWeek("Enter new fertilizer week (press Enter to keep current): ", &current.FertilizerWeek)

	if err := a.mgr.EditField(name, &cropFactor, &week); err != nil {
		reportError(err)
		return
	}
	fmt.Printf("\nSuccessfully updated field '%s'.\n", name)
}

func (a *consoleApp) deleteField() {
	fields, err := a.mgr.ListFields()
	if err != nil {
		reportError(err)
		return
	}
	if len(fields) == 0 {
		fmt.Println("\nError: No fields available to delete.")
		return
	}

	fmt.Println("\n=== Delete Field ===")
	fmt.Println(report.FormatFieldTable(fields))

	name := a.prompt("\nEnter field name to delete: ")

	confirm := strings.ToLower(a.prompt(fmt.Sprintf("Are you sure you want to delete '%s'? (yes/no): ", name)))
	if confirm != "yes" {
		fmt.Println("Deletion cancelled.")
		return
	}

	if err := a.mgr.DeleteField(name); err != nil {
		reportError(err)
		return
	}
	fmt.Printf("\nSuccessfully deleted field '%s'.\n", name)
}

func (a *consoleApp) enterWeatherData() {
	dates := a.mgr.NextThreeDates()

	fmt.Println("\n=== Enter Weather Data ===")
	fmt.Println("Please enter ET0 (reference evapotranspiration) values for each date.")
	fmt.Println("Date format: ISO 8601 (YYYY-MM-DD)")
	fmt.Println()

	for _, date := range dates {
		for {
			input := a.prompt(fmt.Sprintf("Enter ET0 for %s (mm/day): ", date))
			et0, err := strconv.ParseFloat(input, 64)
			if err != nil || et0 < 0 || math.IsNaN(et0) || math.IsInf(et0, 0) {
				fmt.Printf("Error: Invalid ET0 value for %s. Please enter a non-negative number.\n", date)
				continue
			}
			if err := a.mgr.RecordWeather(date, et0); err != nil {
				reportError(err)
				continue
			}
			break
		}
	}

	fmt.Println("\nETc values have been calculated and saved.")
}

func (a *consoleApp) viewEtcTable() {
	fields, err := a.mgr.ListFields()
	if err != nil {
		reportError(err)
		return
	}
	if len(fields) == 0 {
		fmt.Println("\nError: No fields provided. Please enter at least one field.")
		return
	}

	dates := a.mgr.NextThreeDates()
	readings, err := a.store.GetWeatherReadings(dates)
	if err != nil {
		reportError(err)
		return
	}

	stored := make(map[string]bool, len(readings))
	for _, r := range readings {
		stored[r.Date] = true
	}
	missing := false
	for _, date := range dates {
		if !stored[date] {
			fmt.Printf("Error: Missing ET0 value for %s. Please enter a value.\n", date)
			missing = true
		}
	}
	if missing {
		return
	}

	// Refresh derived values before display so edits made since the last
	// weather entry are reflected
	if err := a.mgr.Recalculate(dates); err != nil {
		reportError(err)
		return
	}

	table, err := a.builder.BuildEtcTable(dates)
	if err != nil {
		reportError(err)
		return
	}

	fmt.Println("\n=== ETc Table ===")
	fmt.Println("\nDate format: ISO 8601 (YYYY-MM-DD)")
	fmt.Println()
	fmt.Println(table)
}

// promptCropFactor loops until a valid crop factor is entered. A nil current
// value makes input mandatory; otherwise Enter keeps the current value.
func (a *consoleApp) promptCropFactor(label string, current *float64) float64 {
	for {
		input := a.prompt(label)
		if input == "" && current != nil {
			return *current
		}
		v, err := strconv.ParseFloat(input, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			fmt.Println("Error: Crop factor must be a non-negative number.")
			continue
		}
		return v
	}
}

// promptFertilizerWeek loops until a valid week number is entered
func (a *consoleApp) promptFertilizerWeek(label string, current *int) int {
	for {
		input := a.prompt(label)
		if input == "" && current != nil {
			return *current
		}
		v, err := strconv.Atoi(input)
		if err != nil || v < 1 {
			fmt.Println("Error: Fertilizer week must be a positive integer.")
			continue
		}
		return v
	}
}

// reportError prints a corrective message and keeps the user in the menu loop
func reportError(err error) {
	var verr field.ValidationError
	var derr field.DuplicateError
	var nerr field.NotFoundError
	var serr *storage.StorageError

	switch {
	case errors.As(err, &verr):
		fmt.Printf("Error: %s\n", verr.Message)
	case errors.As(err, &derr):
		fmt.Printf("Error: %s\n", derr.Error())
	case errors.As(err, &nerr):
		fmt.Printf("Error: %s\n", nerr.Error())
	case errors.As(err, &serr):
		fmt.Printf("Error: storage failure: %v\n", serr.Unwrap())
	default:
		fmt.Printf("Error: %v\n", err)
	}
}
