package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"streamchat/internal/complaint"
	"streamchat/internal/config"
	"streamchat/internal/models"
	"streamchat/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	svc := complaint.NewService(storage.NewStorageService(db, rdb))

	command := os.Args[1]

	switch command {
	case "list-reports":
		status := models.ReportStatusNew
		if len(os.Args) > 2 {
			status = os.Args[2]
		}
		if status == "all" {
			status = ""
		}
		if err := listReports(svc, status); err != nil {
			log.Fatalf("Error listing reports: %v", err)
		}
	case "resolve-report":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin resolve-report <report_id>")
			os.Exit(1)
		}
		if err := svc.ResolveReport(os.Args[2]); err != nil {
			log.Fatalf("Error resolving report: %v", err)
		}
		fmt.Printf("Report %s has been resolved.\n", os.Args[2])
	case "delete-message":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin delete-message <stream_id> <message_id>")
			os.Exit(1)
		}
		if err := svc.DeleteMessage(os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Error deleting message: %v", err)
		}
		fmt.Printf("Message %s has been deleted.\n", os.Args[3])
	case "pin":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin pin <stream_id> <message_id>")
			os.Exit(1)
		}
		if err := svc.Pin(os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Error pinning message: %v", err)
		}
		fmt.Printf("Message %s has been pinned.\n", os.Args[3])
	case "unpin":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin unpin <stream_id>")
			os.Exit(1)
		}
		if err := svc.Unpin(os.Args[2]); err != nil {
			log.Fatalf("Error unpinning: %v", err)
		}
		fmt.Printf("Stream %s has no pinned message.\n", os.Args[2])
	case "settings":
		if len(os.Args) != 6 {
			fmt.Println("Usage: admin settings <stream_id> <enabled:true|false> <max_length> <rate_limit>")
			os.Exit(1)
		}
		settings, err := parseSettings(os.Args[3], os.Args[4], os.Args[5])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err := svc.UpdateSettings(os.Args[2], settings); err != nil {
			log.Fatalf("Error updating settings: %v", err)
		}
		fmt.Printf("Settings for stream %s have been updated.\n", os.Args[2])
	default:
		fmt.Println("Unknown command")
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  list-reports [new|resolved|all]")
	fmt.Println("  resolve-report <report_id>")
	fmt.Println("  delete-message <stream_id> <message_id>")
	fmt.Println("  pin <stream_id> <message_id>")
	fmt.Println("  unpin <stream_id>")
	fmt.Println("  settings <stream_id> <enabled> <max_length> <rate_limit>")
}

func listReports(svc *complaint.Service, status string) error {
	reports, err := svc.ListReports(status)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No reports.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTREAM\tMESSAGE\tREASON\tSTATUS\tCREATED")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ReportID, r.StreamID, r.MessageID, r.Reason, r.Status, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func parseSettings(enabled, maxLen, rateLimit string) (models.ChatSettings, error) {
	on, err := strconv.ParseBool(enabled)
	if err != nil {
		return models.ChatSettings{}, fmt.Errorf("Invalid enabled flag. Use true or false.")
	}
	n, err := strconv.Atoi(maxLen)
	if err != nil {
		return models.ChatSettings{}, fmt.Errorf("Invalid max length. Please provide an integer.")
	}
	rl, err := strconv.Atoi(rateLimit)
	if err != nil {
		return models.ChatSettings{}, fmt.Errorf("Invalid rate limit. Please provide an integer.")
	}
	return models.ChatSettings{IsChatEnabled: on, MaxMessageLength: n, RateLimit: rl}, nil
}
