package flasher

// DeviceInstructions is shown before the erase command runs. The tool
// blocks until it sees the device enumerate in BROM or preloader mode, so
// the user connects the device after the command has started.
const DeviceInstructions = `## Connect your device

1. Power the device **off** completely (pull the battery if removable).
2. Hold **both volume keys** (on some models only Volume Down).
3. While holding them, plug in the USB cable.

The tool waits for the device to enumerate. Nothing happens until the
cable goes in, so take your time.`

// Troubleshooting is shown when the erase command exits non-zero.
const Troubleshooting = `## The erase command failed

Common causes, most likely first:

- **Device never entered download mode.** Power off fully, hold both
  volume keys, then connect USB. Some devices need Volume Down only.
- **Permissions (Linux).** The udev rules may be missing or stale. Run
  ` + "`mtkwipe doctor`" + ` to check, or re-run ` + "`mtkwipe setup`" + `.
- **Bad cable or USB hub.** Use a data cable plugged directly into the
  machine. Front-panel ports and hubs drop BROM handshakes.
- **Device protected by DAA/SLA auth.** Some newer devices require a
  vendor auth file that this tool cannot provide.
- **Stale driver claimed the port (Linux).** Unplug, then:
  ` + "`sudo modprobe -r qcaux cdc_acm`" + ` and retry.

Setup problems (missing modules, import errors) usually mean the install
is incomplete: re-run ` + "`mtkwipe setup --force`" + `.`
