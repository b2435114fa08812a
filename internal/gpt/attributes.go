package gpt

// ChromeOS attribute accessors on one entry of one copy. The bit packing
// itself lives on types.GptEntry so every format reader shares the same
// layout table; these wrappers add the (secondary, index) addressing and
// mark the touched copy modified.

// GetPriority returns the boot priority (0-15) of an entry.
func GetPriority(d *Drive, secondary bool, index uint32) (int, error) {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return 0, err
	}
	return e.Priority(), nil
}

// SetPriority sets the boot priority (clamped to 0-15) of an entry.
func SetPriority(d *Drive, secondary bool, index uint32, priority int) error {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return err
	}
	e.SetPriority(priority)
	d.markEntriesModified(secondary)
	return nil
}

// GetTries returns the tries-remaining count (0-15) of an entry.
func GetTries(d *Drive, secondary bool, index uint32) (int, error) {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return 0, err
	}
	return e.Tries(), nil
}

// SetTries sets the tries-remaining count (clamped to 0-15) of an entry.
func SetTries(d *Drive, secondary bool, index uint32, tries int) error {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return err
	}
	e.SetTries(tries)
	d.markEntriesModified(secondary)
	return nil
}

// GetSuccessful returns the successful-boot flag of an entry.
func GetSuccessful(d *Drive, secondary bool, index uint32) (bool, error) {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return false, err
	}
	return e.Successful(), nil
}

// SetSuccessful sets the successful-boot flag of an entry.
func SetSuccessful(d *Drive, secondary bool, index uint32, successful bool) error {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return err
	}
	e.SetSuccessful(successful)
	d.markEntriesModified(secondary)
	return nil
}

// GetLegacyBootable returns the legacy BIOS bootable flag of an entry.
func GetLegacyBootable(d *Drive, secondary bool, index uint32) (bool, error) {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return false, err
	}
	return e.LegacyBootable(), nil
}

// SetLegacyBootable sets the legacy BIOS bootable flag of an entry.
func SetLegacyBootable(d *Drive, secondary bool, index uint32, bootable bool) error {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return err
	}
	e.SetLegacyBootable(bootable)
	d.markEntriesModified(secondary)
	return nil
}

// SetRaw overwrites the whole 16-bit ChromeOS attribute field of an entry.
func SetRaw(d *Drive, secondary bool, index uint32, raw uint16) error {
	e, err := d.GetEntry(secondary, index)
	if err != nil {
		return err
	}
	e.SetRawAttributes(raw)
	d.markEntriesModified(secondary)
	return nil
}

func (d *Drive) markEntriesModified(useSecondary bool) {
	if useSecondary {
		d.Modified |= ModifiedEntries2
	} else {
		d.Modified |= ModifiedEntries1
	}
}

// UpdateAllEntries propagates the primary copy's working entries into the
// secondary copy so both on-disk arrays commit consistently, and marks
// everything for CRC refresh and write-back.
func UpdateAllEntries(d *Drive) {
	d.Entries[secondary] = append(d.Entries[secondary][:0], d.Entries[primary]...)
	UpdateCrc(d)
	d.Modified |= ModifiedHeader1 | ModifiedHeader2 | ModifiedEntries1 | ModifiedEntries2
}
