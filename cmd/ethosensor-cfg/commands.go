package main

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/gilestrolab/ethosensor/internal/client"
	"github.com/gilestrolab/ethosensor/internal/config"
	"github.com/gilestrolab/ethosensor/internal/discovery"
)

// Node command flags
var (
	deviceAddr   string
	devicePort   int
	scanTimeout  int
	outputFormat string

	setName     string
	setLocation string
	setSSID     string
	setPassword string
)

func init() {
	// Common flags for node commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceAddr, "device", "", "Node IP address or instance name (IP skips discovery)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", discovery.DefaultPort, "Node HTTP port")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(resetCmd)
}

// scanCmd discovers nodes on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for sensor nodes on the network",
	Long: `Scan for sensor nodes using mDNS/DNS-SD discovery.

This command listens for mDNS broadcasts from sensor nodes and displays all
discovered nodes with their addresses and TXT metadata.`,
	Example: `  # Scan for 10 seconds (default)
  ethosensor-cfg scan

  # Quick 3-second scan
  ethosensor-cfg scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for sensor nodes (timeout: %ds)...\n\n", scanTimeout)

	devices, err := discovery.ScanForDevices(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No nodes found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the node is powered on and connected to this network")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --device flag to specify an IP manually if discovery fails")
		return nil
	}

	fmt.Printf("Found %d node(s):\n\n", len(devices))

	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.Name)
		fmt.Printf("   IP:       %s:%d\n", device.IP, device.Port)
		if id := device.ID(); id != "" {
			fmt.Printf("   ID:       %s\n", id)
		}
		if loc := device.Location(); loc != "" {
			fmt.Printf("   Location: %s\n", loc)
		}
		fmt.Println()
	}

	fmt.Println("Use 'ethosensor-cfg show --device <ip>' to view a node's reading and configuration")

	return nil
}

// showCmd displays a node's current reading and configuration
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show node reading and configuration",
	Long: `Display the current reading and configuration of a sensor node.

The node is selected with --device, which accepts an IP address or an mDNS
instance name (resolved via discovery).`,
	Example: `  # Show a node by IP
  ethosensor-cfg show --device 192.168.1.42

  # Show a node by instance name (mDNS lookup)
  ethosensor-cfg show --device etho_sensor_000

  # JSON output for scripting
  ethosensor-cfg show --device 192.168.1.42 --format json`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

func runShow(cmd *cobra.Command, args []string) error {
	c, err := nodeClient()
	if err != nil {
		return err
	}

	status, err := c.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get node status: %w", err)
	}

	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	default:
		freshness := "stale"
		if status.Fresh {
			freshness = "fresh"
		}
		fmt.Printf("Node:        %s\n", status.Name)
		fmt.Printf("ID:          %s\n", status.ID)
		fmt.Printf("Location:    %s\n", status.Location)
		fmt.Printf("Address:     %s\n", status.IP)
		fmt.Println()
		fmt.Printf("Temperature: %.1f °C\n", status.Temperature)
		fmt.Printf("Humidity:    %.1f %%\n", status.Humidity)
		fmt.Printf("Pressure:    %.1f hPa\n", status.Pressure)
		fmt.Printf("Light:       %d lux\n", status.Light)
		fmt.Printf("Reading:     %s\n", freshness)
	}

	return nil
}

// setCmd updates node configuration fields
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Update node configuration",
	Long: `Update configuration fields on a sensor node.

Each flag maps to one stored field. Values longer than the node's field
capacity are truncated by the node. Only the given fields are changed.`,
	Example: `  # Rename a node
  ethosensor-cfg set --device 192.168.1.42 --name incubator_7

  # Move a node and update its WiFi credentials
  ethosensor-cfg set --device etho_sensor_000 \
      --location "room 3.14" --wifi-ssid LabNet --wifi-pwd secret`,
	RunE: runSet,
}

func init() {
	setCmd.Flags().StringVar(&setName, "name", "", "Device name")
	setCmd.Flags().StringVar(&setLocation, "location", "", "Device location")
	setCmd.Flags().StringVar(&setSSID, "wifi-ssid", "", "WiFi network name")
	setCmd.Flags().StringVar(&setPassword, "wifi-pwd", "", "WiFi password")
}

func runSet(cmd *cobra.Command, args []string) error {
	fields := make(map[string]string)
	if cmd.Flags().Changed("name") {
		fields[config.FieldName] = setName
	}
	if cmd.Flags().Changed("location") {
		fields[config.FieldLocation] = setLocation
	}
	if cmd.Flags().Changed("wifi-ssid") {
		fields[config.FieldWiFiSSID] = setSSID
	}
	if cmd.Flags().Changed("wifi-pwd") {
		fields[config.FieldWiFiPwd] = setPassword
	}
	if len(fields) == 0 {
		return fmt.Errorf("nothing to update (use --name, --location, --wifi-ssid or --wifi-pwd)")
	}

	c, err := nodeClient()
	if err != nil {
		return err
	}

	fmt.Printf("Updating %d field(s)...\n", len(fields))
	if err := c.SetConfig(fields); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Println("Configuration updated successfully")
	return nil
}

// resetCmd restarts a node
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restart a sensor node",
	Long: `Ask a sensor node to restart.

The node acknowledges before restarting, so it drops off the network for a
few seconds after this command returns.`,
	Example: `  ethosensor-cfg reset --device 192.168.1.42`,
	RunE: runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	c, err := nodeClient()
	if err != nil {
		return err
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Println("Node is restarting")
	return nil
}

// nodeClient resolves --device into a client. A value that parses as an IP
// is used directly; anything else is treated as an mDNS instance name.
func nodeClient() (*client.Client, error) {
	if deviceAddr == "" {
		return nil, fmt.Errorf("--device is required (IP address or instance name)")
	}

	if isIPAddress(deviceAddr) {
		return client.NewClient(deviceAddr, devicePort), nil
	}

	fmt.Printf("Looking up node %q via mDNS...\n", deviceAddr)
	device, err := discovery.FindDevice(deviceAddr)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	return client.NewClientWithURL(device.BaseURL()), nil
}

func isIPAddress(s string) bool {
	return net.ParseIP(s) != nil
}
