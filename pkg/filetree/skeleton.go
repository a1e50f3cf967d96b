package filetree

// DefaultSkeleton returns the minimal React project used when code generation
// fails. name becomes the package name; the root is always RootName.
func DefaultSkeleton(name string) *Node {
	if name == "" {
		name = "my-app"
	}
	return NewFolder(RootName,
		NewFolder("public",
			NewFile("index.html", `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>`+name+`</title>
  </head>
  <body>
    <div id="root"></div>
  </body>
</html>
`),
		),
		NewFolder("src",
			NewFile("App.jsx", `import React, { useState } from 'react';

function App() {
  const [count, setCount] = useState(0);
  return (
    <div className="min-h-screen flex flex-col items-center justify-center gap-4">
      <h1 className="text-3xl font-bold">`+name+`</h1>
      <button className="px-4 py-2 rounded bg-indigo-600 text-white" onClick={() => setCount(count + 1)}>
        Clicked {count} times
      </button>
    </div>
  );
}

export default App;
`),
			NewFile("index.js", `import React from 'react';
import ReactDOM from 'react-dom/client';
import App from './App';

ReactDOM.createRoot(document.getElementById('root')).render(<App />);
`),
		),
		NewFile("package.json", `{
  "name": "`+name+`",
  "version": "0.1.0",
  "private": true,
  "dependencies": {
    "react": "^18.2.0",
    "react-dom": "^18.2.0"
  },
  "scripts": {
    "start": "react-scripts start",
    "build": "react-scripts build",
    "test": "react-scripts test"
  }
}
`),
		NewFile("README.md", "# "+name+"\n"),
	)
}
