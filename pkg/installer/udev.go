package installer

// UdevRules is the USB access rules file installed on Linux so the
// flashing tool can talk to MediaTek devices without running as root.
// 0e8d:0003 is BROM mode, 0e8d:2000/2001 are preloader modes, 1004:6000
// shows up on some rebadged SoCs. ModemManager must be told to leave the
// ports alone or it grabs the BROM tty before the tool can.
const UdevRules = `# mtkwipe: MediaTek BROM / Preloader USB access
SUBSYSTEM=="usb", ACTION=="add", ATTR{idVendor}=="0e8d", ATTR{idProduct}=="0003", MODE="0660", TAG+="uaccess"
SUBSYSTEM=="usb", ACTION=="add", ATTR{idVendor}=="0e8d", ATTR{idProduct}=="2000", MODE="0660", TAG+="uaccess"
SUBSYSTEM=="usb", ACTION=="add", ATTR{idVendor}=="0e8d", ATTR{idProduct}=="2001", MODE="0660", TAG+="uaccess"
SUBSYSTEM=="usb", ACTION=="add", ATTR{idVendor}=="0e8d", ATTR{idProduct}=="20ff", MODE="0660", TAG+="uaccess"
SUBSYSTEM=="usb", ACTION=="add", ATTR{idVendor}=="1004", ATTR{idProduct}=="6000", MODE="0660", TAG+="uaccess"
ATTRS{idVendor}=="0e8d", ENV{ID_MM_DEVICE_IGNORE}="1"
ATTRS{idVendor}=="1004", ENV{ID_MM_DEVICE_IGNORE}="1"
`
