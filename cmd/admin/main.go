package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"smartpothole/backend/internal/auth"
	"smartpothole/backend/internal/complaint"
	"smartpothole/backend/internal/config"
	"smartpothole/backend/internal/export"
	"smartpothole/backend/internal/logger"
	"smartpothole/backend/internal/storage"
)

const defaultActor = "admin-cli"

const usage = `Usage: admin <command> [args]

Commands:
  hash-password <password>                  print a bcrypt hash for authorities.json
  list [--status STATUS]                    print complaints
  export <file.xlsx>                        write every complaint to a spreadsheet
  set-status <complaint_id> <status> [--actor NAME]
  assign <complaint_id> <assignee> [--actor NAME]
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}
	command := os.Args[1]

	var actor, statusFilter string
	flagSet := pflag.NewFlagSet("admin "+command, pflag.ContinueOnError)
	flagSet.StringVar(&actor, "actor", defaultActor, "identity recorded in the activity log")
	flagSet.StringVar(&statusFilter, "status", "", "only list complaints with this status")
	if err := flagSet.Parse(os.Args[2:]); err != nil {
		if err == pflag.ErrHelp {
			fmt.Print(usage)
			return
		}
		log.Fatalf("Invalid arguments: %v", err)
	}
	args := flagSet.Args()

	// hash-password needs no store.
	if command == "hash-password" {
		if len(args) != 1 {
			fmt.Println("Usage: admin hash-password <password>")
			os.Exit(1)
		}
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			log.Fatalf("Error hashing password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg := config.Load()
	zl, err := logger.NewLogger("warn", "console", "")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	store, closeStore, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("failed to open complaint store: %v", err)
	}
	defer closeStore() //nolint:errcheck

	images, err := storage.NewImageStore(cfg.Store.ImageDir)
	if err != nil {
		log.Fatalf("failed to open image directory: %v", err)
	}

	ctx := context.Background()
	svc, err := complaint.NewService(ctx, store, images, nil, nil, zl)
	if err != nil {
		log.Fatalf("failed to initialise complaint service: %v", err)
	}

	switch command {
	case "list":
		if err := listComplaints(ctx, svc, statusFilter, os.Stdout); err != nil {
			log.Fatalf("Error listing complaints: %v", err)
		}
	case "export":
		if len(args) != 1 {
			fmt.Println("Usage: admin export <file.xlsx>")
			os.Exit(1)
		}
		n, err := exportComplaints(ctx, svc, args[0])
		if err != nil {
			log.Fatalf("Error exporting complaints: %v", err)
		}
		fmt.Printf("Exported %d complaints to %s.\n", n, args[0])
	case "set-status":
		if len(args) != 2 {
			fmt.Println("Usage: admin set-status <complaint_id> <status> [--actor NAME]")
			os.Exit(1)
		}
		res, err := svc.Update(ctx, args[0], complaint.UpdateRequest{Status: &args[1], Actor: actor})
		if err != nil {
			log.Fatalf("Error updating complaint: %v", err)
		}
		report(res)
	case "assign":
		if len(args) != 2 {
			fmt.Println("Usage: admin assign <complaint_id> <assignee> [--actor NAME]")
			os.Exit(1)
		}
		res, err := svc.Update(ctx, args[0], complaint.UpdateRequest{AssignedTo: &args[1], Actor: actor})
		if err != nil {
			log.Fatalf("Error assigning complaint: %v", err)
		}
		report(res)
	default:
		fmt.Println("Unknown command")
		fmt.Print(usage)
		os.Exit(1)
	}
}

func report(res *complaint.UpdateResult) {
	if !res.Changed {
		fmt.Printf("Complaint %s already up to date.\n", res.ComplaintID)
		return
	}
	fmt.Printf("Complaint %s updated by %s: status=%s assigned_to=%s\n",
		res.ComplaintID, res.UpdatedBy, res.Complaint.Status, res.Complaint.AssignedTo)
}

func listComplaints(ctx context.Context, svc *complaint.Service, status string, out io.Writer) error {
	all, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if status != "" {
		filtered := all[:0]
		for _, c := range all {
			if c.Status == status {
				filtered = append(filtered, c)
			}
		}
		all = filtered
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPLAINT_ID\tSTATUS\tASSIGNED_TO\tTIMESTAMP\tLOCATION")
	for _, c := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ComplaintID, c.Status, dash(c.AssignedTo), c.Timestamp, c.LocationDescription)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d complaints\n", len(all))
	return nil
}

func exportComplaints(ctx context.Context, svc *complaint.Service, path string) (int, error) {
	all, err := svc.List(ctx)
	if err != nil {
		return 0, err
	}
	data, err := export.ComplaintsXLSX(all)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return len(all), nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
