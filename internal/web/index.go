package web

// indexHTML is the single-page interface served at /. It talks to the JSON
// API and the WebSocket endpoint; no static assets are read from disk.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>WebP Converter</title>
<style>
  body { font-family: sans-serif; max-width: 720px; margin: 2em auto; padding: 0 1em; }
  label { display: block; margin-top: 0.8em; }
  input[type=text], input[type=number] { width: 100%; padding: 4px; }
  button { margin-top: 1em; margin-right: 0.5em; padding: 6px 14px; }
  #log { margin-top: 1.5em; border: 1px solid #ccc; padding: 0.5em; height: 280px;
         overflow-y: auto; font-family: monospace; font-size: 13px; white-space: pre-wrap; }
  .failed { color: #b00; }
  .converted { color: #070; }
</style>
</head>
<body>
<h1>WebP Converter</h1>

<label>Input file or directory
  <input type="text" id="input" placeholder="/path/to/images">
</label>
<label>Output folder (optional)
  <input type="text" id="outputFolder" placeholder="leave empty to write alongside inputs">
</label>
<label>Quality (1-100)
  <input type="number" id="quality" min="1" max="100" value="80">
</label>
<label><input type="checkbox" id="lossless"> Lossless</label>
<label><input type="checkbox" id="recursive"> Recursive</label>

<button id="start">Convert</button>
<button id="stop">Stop</button>

<div id="log"></div>

<script>
const log = document.getElementById('log');
function append(line, cls) {
  const div = document.createElement('div');
  if (cls) div.className = cls;
  div.textContent = line;
  log.appendChild(div);
  log.scrollTop = log.scrollHeight;
}

const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  switch (msg.type) {
    case 'file_converted':
      append('converted ' + msg.data.path + ' (' + msg.data.message + ')', 'converted');
      break;
    case 'file_failed':
      append('failed ' + msg.data.path + ': ' + msg.data.message, 'failed');
      break;
    case 'file_skipped':
      append('skipped ' + msg.data.path + ' (' + msg.data.message + ')');
      break;
    case 'convert_completed':
      append(msg.data.summary);
      break;
    case 'convert_error':
      append('error: ' + msg.data.error, 'failed');
      break;
    default:
      append(msg.type);
  }
};

document.getElementById('start').onclick = async () => {
  log.textContent = '';
  const body = {
    input: document.getElementById('input').value,
    output_folder: document.getElementById('outputFolder').value,
    quality: parseInt(document.getElementById('quality').value, 10),
    lossless: document.getElementById('lossless').checked,
    recursive: document.getElementById('recursive').checked
  };
  const resp = await fetch('/api/convert', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify(body)
  });
  const data = await resp.json();
  if (!data.success) append('error: ' + data.error, 'failed');
};

document.getElementById('stop').onclick = () => fetch('/api/stop', {method: 'POST'});
</script>
</body>
</html>
`
