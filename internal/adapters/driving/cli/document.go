package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/flexdb/internal/core/domain"
)

var insertCmd = &cobra.Command{
	Use:   "insert [json]",
	Short: "Insert a JSON document",
	Long: `Insert a JSON object as a new record and print its id.

With --raw the text is stored exactly as given, leaving validation to the
database's JSON check constraint.`,
	Args: cobra.ExactArgs(1),
	RunE: runInsert,
}

var selectCmd = &cobra.Command{
	Use:   "select [key] [value]",
	Short: "Find documents by field value",
	Long: `Print every document whose top-level field equals value, newest first.

The value is read as JSON when possible (30, true, null, "30") and as a
plain string otherwise.`,
	Args: cobra.ExactArgs(2),
	RunE: runSelect,
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a document by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var updateCmd = &cobra.Command{
	Use:   "update [id] [key] [value]",
	Short: "Set one field of a document",
	Long:  `Set (or add) a top-level field on the document with the given id.`,
	Args:  cobra.ExactArgs(3),
	RunE:  runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored documents",
	Args:  cobra.NoArgs,
	RunE:  runCount,
}

var (
	insertRaw        bool
	selectPluck      string
	selectNamespaced bool
)

func init() {
	insertCmd.Flags().BoolVar(&insertRaw, "raw", false, "Store the text without parsing it")
	selectCmd.Flags().StringVarP(&selectPluck, "pluck", "p", "", "Print only this path of each match (gjson syntax)")
	selectCmd.Flags().BoolVar(&selectNamespaced, "namespaced", false, "Keep record metadata apart from the document")

	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(countCmd)
}

// recordView is the --namespaced output shape. Document fields never
// collide with record metadata here.
type recordView struct {
	ID        int64           `json:"id"`
	CreatedAt string          `json:"created_at"`
	Document  domain.Document `json:"document"`
}

func newRecordView(rec domain.Record) recordView {
	return recordView{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt.UTC().Format(domain.TimestampLayout),
		Document:  rec.Data,
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: record id %q", domain.ErrInvalidInput, arg)
	}
	return id, nil
}

func runInsert(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	ctx := context.Background()

	var id int64
	var err error
	if insertRaw {
		id, err = documentService.InsertRaw(ctx, args[0])
	} else {
		var doc domain.Document
		dec := json.NewDecoder(strings.NewReader(args[0]))
		dec.UseNumber()
		if decodeErr := dec.Decode(&doc); decodeErr != nil {
			return fmt.Errorf("%w: document must be a JSON object: %v", domain.ErrInvalidInput, decodeErr)
		}
		id, err = documentService.Insert(ctx, doc)
	}
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved record ID: %d\n", id)
	return nil
}

func runSelect(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	records, err := documentService.Select(context.Background(), args[0], parseValue(args[1]))
	if err != nil {
		return fmt.Errorf("failed to select documents: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, rec := range records {
		var view any = rec.Flatten()
		if selectNamespaced {
			view = newRecordView(rec)
		}

		if selectPluck == "" {
			if err := printJSON(out, view); err != nil {
				return err
			}
			continue
		}

		b, err := json.Marshal(view)
		if err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		if r := gjson.GetBytes(b, selectPluck); r.Exists() {
			if err := printRawJSON(out, []byte(r.Raw)); err != nil {
				return err
			}
		}
	}

	if len(records) == 0 {
		cmd.PrintErrln("No documents found")
	}
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	rec, err := documentService.Get(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), rec.Flatten())
}

func runUpdate(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	key := args[1]
	if err := documentService.UpdateField(context.Background(), id, key, parseValue(args[2])); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated field '%s' for ID %d\n", key, id)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ok, err := documentService.Delete(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted record ID: %d\n", id)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "No record with ID: %d\n", id)
	}
	return nil
}

func runCount(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	n, err := documentService.Count(context.Background())
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}
