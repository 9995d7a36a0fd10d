package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"restaurant-backend/internal/alert"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/payroll"

	"github.com/spf13/cobra"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		boot()
		fmt.Println("schema is up to date")
		return nil
	},
}

var payrollCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Salary payment jobs",
}

var payrollRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Pay the salaries due today",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := boot()
		connectOptional(cmd.Context(), cfg)
		res, err := payroll.ProcessSalaryPayments(cmd.Context(), database.DB, time.Now())
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var payrollPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Retry pending salary payments, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := boot()
		connectOptional(cmd.Context(), cfg)
		res, err := payroll.ProcessPendingPayments(cmd.Context(), database.DB)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Balance ledger maintenance",
}

var balanceRecalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Replay every transaction and rewrite the running balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		boot()
		bal, err := ledger.Recalculate(database.DB)
		if err != nil {
			return err
		}
		return printJSON(bal)
	},
}

var balanceMigrateCmd = &cobra.Command{
	Use:   "migrate-history",
	Short: "Create ledger transactions for historical orders, deliveries and expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		boot()
		res, err := ledger.MigrateHistoricalData(database.DB)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Balance alerts",
}

var alertsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Raise or resolve balance and pending-payment alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := boot()
		connectOptional(cmd.Context(), cfg)
		res, err := alert.CheckAndCreate(cmd.Context(), database.DB)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	payrollCmd.AddCommand(payrollRunCmd, payrollPendingCmd)
	balanceCmd.AddCommand(balanceRecalculateCmd, balanceMigrateCmd)
	alertsCmd.AddCommand(alertsCheckCmd)
}
