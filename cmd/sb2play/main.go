// Speedball II sound driver player
// Uses portaudio for audio output or can write to a WAV file.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/sfrankau/sb2sound"
	"github.com/sfrankau/sb2sound/cmd/sb2play/internal/config"
)

var (
	flagHz      = flag.Int("hz", 44100, "output sample rate in hz")
	flagStereo  = flag.Bool("stereo", true, "mix to stereo instead of mono")
	flagTremolo = flag.Bool("tremolo", true, "enable tremolo effect deltas")
	flagVibrato = flag.Bool("vibrato", true, "enable vibrato effect deltas")
	flagRepeats = flag.Bool("repeats", true, "honor Restart opcodes")
	flagLerp    = flag.Bool("lerp", true, "linear-interpolate sample playback")
	flagReverb  = flag.String("reverb", "none", "post-mix reverb: none, light, medium, silly")
	flagWav     = flag.String("wav", "", "render offline to this WAV file instead of playing live")
	flagSeq     = flag.Int("seq", 0, "sequence index to play on startup")
	flagChannel = flag.Int("channel", 0, "synth channel (0-3) to play the sequence on")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("sb2play: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("missing bank name (intro|game)")
	}

	bankName := flag.Arg(0)
	bc, ok := config.Banks[bankName]
	if !ok {
		log.Fatalf("unknown bank %q", bankName)
	}

	image, err := os.ReadFile(bc.File)
	if err != nil {
		log.Fatal(err)
	}

	bank, err := sb2sound.NewBank(image, bc.NumSequences, bc.NumInstrs)
	if err != nil {
		log.Fatal(err)
	}

	if *flagChannel < 0 || *flagChannel >= sb2sound.NumChannels {
		log.Fatalf("channel %d out of range 0-%d", *flagChannel, sb2sound.NumChannels-1)
	}
	if *flagSeq < 0 || *flagSeq >= bank.NumSequences() {
		log.Fatalf("sequence %d out of range 0-%d", *flagSeq, bank.NumSequences()-1)
	}

	synth := sb2sound.NewSynth(bank)
	synth.Stereo = *flagStereo
	synth.SetLerp(*flagLerp)

	ch := synth.Channel(*flagChannel)
	ch.Opts = sb2sound.Options{Tremolo: *flagTremolo, Vibrato: *flagVibrato, Repeats: *flagRepeats}
	synth.PlaySequence(*flagChannel, *flagSeq)

	locked := sb2sound.NewLockedSynth(synth)

	reverb, err := config.ReverbFromFlag(*flagReverb, *flagHz)
	if err != nil {
		log.Fatal(err)
	}

	if *flagWav != "" {
		if err := renderWav(locked, reverb, *flagWav); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := playLive(locked, reverb); err != nil {
		log.Fatal(err)
	}
}

func numChannels() uint16 {
	if *flagStereo {
		return 2
	}
	return 1
}
